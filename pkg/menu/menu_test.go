package menu

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/mealwatch/pkg/models"
)

func fixedClock() time.Time {
	return time.Date(2026, time.November, 16, 9, 0, 0, 0, time.UTC)
}

func weeklyDocument() []string {
	return []string{
		"동서대학교 기숙사",
		"주간 식단표",
		"",
		"11월 17일 11월 18일 11월 19일",
		"(월) (화) (수)",
		"구분",
		"중식",
		"밥 국 -",
		"   김치찌개   된장찌개 미역국",
		"원산지",
		"석식",
		"카레 짜장 —",
		"샐러드 - 과일",
		"[원산지 표시]",
		"쌀: 국내산, 배추김치: 국내산",
		"돼지고기: 국내산",
		"* 식단은 사정에 따라 변경될 수 있습니다.",
		"중식",
		"※ 알레르기 유발 식품 안내",
	}
}

func TestNormalizeCell(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw      string
		expected string
	}{
		{" a   b ", "a b"},
		{"-", ""},
		{"—", ""},
		{"–", ""},
		{"", ""},
		{"  -  ", ""},
		{"a-b", "a-b"},
		{"\t잡곡밥\n", "잡곡밥"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%q", tc.raw), func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeCell(tc.raw))
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	c, err := DefaultRules().Classify(weeklyDocument())
	require.NoError(t, err)

	assert.Equal(t, "11월 17일 11월 18일 11월 19일", c.DateHeader)
	assert.Equal(t, "(월) (화) (수)", c.WeekdayHeader)
	assert.Equal(t, []string{
		"밥 국 -",
		"김치찌개   된장찌개 미역국",
		"카레 짜장 —",
		"샐러드 - 과일",
	}, c.Lines(KindMenuRow))

	// origin mode is sticky: a boilerplate value after the marker stays origin
	origin := c.Lines(KindOrigin)
	require.Len(t, origin, 6)
	assert.Equal(t, "[원산지 표시]", origin[0])
	assert.Equal(t, "중식", origin[4])

	assert.Equal(t, []string{"구분", "중식", "원산지", "석식"}, c.Lines(KindBoilerplate))
}

func TestClassifyHeaders(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		lines []string
		kind  *ParseError
	}{
		{
			name:  "no date header",
			lines: []string{"주간 식단표", "월 화", "밥 국"},
			kind:  ErrNoDateHeader,
		},
		{
			name:  "weekday header beyond lookahead",
			lines: []string{"11월 17일", "a", "b", "c", "d", "월"},
			kind:  ErrNoWeekdayHeader,
		},
		{
			name:  "weekday header missing",
			lines: []string{"11월 17일 11월 18일"},
			kind:  ErrNoWeekdayHeader,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := DefaultRules().Classify(tc.lines)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tc.kind.Kind, pe.Kind)
		})
	}
}

func TestClassifyWeekdayWithinLookahead(t *testing.T) {
	t.Parallel()

	c, err := DefaultRules().Classify([]string{"11월 17일", "a", "b", "c", "월", "밥"})
	require.NoError(t, err)
	assert.Equal(t, "월", c.WeekdayHeader)
	assert.Equal(t, []string{"밥"}, c.Lines(KindMenuRow))
}

func TestClassifyInlineOriginNoteIsMenuRow(t *testing.T) {
	t.Parallel()

	lines := []string{
		"11월 16일 11월 17일",
		"월 화",
		"밥 국",
		"돈까스(원산지:국내산) 된장찌개",
		"카레 짜장",
		"샐러드 과일",
		"[원산지 표시]",
		"쌀: 국내산",
	}

	c, err := DefaultRules().Classify(lines)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"밥 국",
		"돈까스(원산지:국내산) 된장찌개",
		"카레 짜장",
		"샐러드 과일",
	}, c.Lines(KindMenuRow))
	assert.Equal(t, []string{"[원산지 표시]", "쌀: 국내산"}, c.Lines(KindOrigin))

	snap, err := NewParser(WithClock(fixedClock)).Parse(lines)
	require.NoError(t, err)
	assert.Equal(t, []string{"밥", "돈까스(원산지:국내산)"}, snap.Menus["2026-11-16"].Lunch)
	assert.Equal(t, []string{"짜장", "과일"}, snap.Menus["2026-11-17"].Dinner)
	assert.Equal(t, "[원산지 표시]\n쌀: 국내산", snap.Main)
}

func TestOriginMarkerForms(t *testing.T) {
	t.Parallel()

	marker := DefaultRules().OriginMarker
	for _, line := range []string{"[원산지 표시]", "  【원 산 지】", "<원산지>", "〔원산지 안내〕 쌀"} {
		assert.True(t, marker.MatchString(line), line)
	}
	for _, line := range []string{"(원산지 표시)", "돈까스[원산지:국내산]", "원산지"} {
		assert.False(t, marker.MatchString(line), line)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	snap, err := NewParser(WithClock(fixedClock)).Parse(weeklyDocument())
	require.NoError(t, err)

	require.Len(t, snap.Menus, 3)
	assert.Equal(t, models.MenuEntry{
		Weekday: "월",
		Lunch:   []string{"밥", "김치찌개"},
		Dinner:  []string{"카레", "샐러드"},
	}, snap.Menus["2026-11-17"])
	assert.Equal(t, models.MenuEntry{
		Weekday: "화",
		Lunch:   []string{"국", "된장찌개"},
		Dinner:  []string{"짜장"},
	}, snap.Menus["2026-11-18"])
	assert.Equal(t, models.MenuEntry{
		Weekday: "수",
		Lunch:   []string{"미역국"},
		Dinner:  []string{"과일"},
	}, snap.Menus["2026-11-19"])

	assert.Equal(t, "[원산지 표시]\n쌀: 국내산, 배추김치: 국내산\n돼지고기: 국내산\n중식", snap.Main)
	assert.Equal(t, "* 식단은 사정에 따라 변경될 수 있습니다.\n※ 알레르기 유발 식품 안내", snap.Notice)
}

func TestParseColumnAlignment(t *testing.T) {
	t.Parallel()

	lines := []string{
		"11월 17일 11월 18일",
		"월 화",
		"밥 국",
		"김치찌개 된장찌개",
		"카레 짜장",
		"샐러드 -",
	}
	snap, err := NewParser(WithClock(fixedClock)).Parse(lines)
	require.NoError(t, err)

	assert.Equal(t, []string{"밥", "김치찌개"}, snap.Menus["2026-11-17"].Lunch)
	assert.Equal(t, []string{"국", "된장찌개"}, snap.Menus["2026-11-18"].Lunch)
	assert.Equal(t, []string{"카레", "샐러드"}, snap.Menus["2026-11-17"].Dinner)
	assert.Equal(t, []string{"짜장"}, snap.Menus["2026-11-18"].Dinner)
}

func TestParseShortRowsAndMissingWeekdays(t *testing.T) {
	t.Parallel()

	lines := []string{
		"11월 17일 11월 18일 11월 19일",
		"월 화",
		"밥",
		"카레 짜장",
	}
	snap, err := NewParser(WithClock(fixedClock)).Parse(lines)
	require.NoError(t, err)

	require.Len(t, snap.Menus, 3)
	assert.Equal(t, "", snap.Menus["2026-11-19"].Weekday)
	assert.Equal(t, []string{}, snap.Menus["2026-11-19"].Lunch)
	assert.Equal(t, []string{}, snap.Menus["2026-11-18"].Lunch)
	assert.Equal(t, []string{"짜장"}, snap.Menus["2026-11-18"].Dinner)
	assert.Equal(t, "", snap.Main)
	assert.Equal(t, "", snap.Notice)
}

func TestParseOddRowCountGivesLunchTheExtraRow(t *testing.T) {
	t.Parallel()

	lines := []string{"11월 17일", "월", "a", "b", "c"}
	snap, err := NewParser(WithClock(fixedClock)).Parse(lines)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, snap.Menus["2026-11-17"].Lunch)
	assert.Equal(t, []string{"c"}, snap.Menus["2026-11-17"].Dinner)
}

func TestParseCustomLayout(t *testing.T) {
	t.Parallel()

	lunchOnly := Layout{LunchRows: func(total int) int { return total }}
	lines := []string{"11월 17일", "월", "a", "b", "c"}
	snap, err := NewParser(WithClock(fixedClock), WithLayout(lunchOnly)).Parse(lines)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, snap.Menus["2026-11-17"].Lunch)
	assert.Empty(t, snap.Menus["2026-11-17"].Dinner)
}

func TestParseInvalidCalendarDate(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"2월 30일 3월 1일", "13월 1일", "4월 31일", "1월 0일"} {
		_, err := NewParser(WithClock(fixedClock)).Parse([]string{header, "월 화", "밥 국"})
		assert.True(t, errors.Is(err, ErrInvalidCalendarDate), "%s: got %v", header, err)
	}
}

func TestParseLeapDay(t *testing.T) {
	t.Parallel()

	leapYear := func() time.Time { return time.Date(2028, time.January, 1, 0, 0, 0, 0, time.UTC) }
	snap, err := NewParser(WithClock(leapYear)).Parse([]string{"2월 29일", "화", "밥"})
	require.NoError(t, err)
	assert.Contains(t, snap.Menus, "2028-02-29")

	_, err = NewParser(WithClock(fixedClock)).Parse([]string{"2월 29일", "일", "밥"})
	assert.True(t, errors.Is(err, ErrInvalidCalendarDate))
}

func TestParseIsDeterministic(t *testing.T) {
	t.Parallel()

	p := NewParser(WithClock(fixedClock))
	first, err := p.Parse(weeklyDocument())
	require.NoError(t, err)
	second, err := p.Parse(weeklyDocument())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, Changed(&first, second))
}

func TestChanged(t *testing.T) {
	t.Parallel()

	base, err := NewParser(WithClock(fixedClock)).Parse(weeklyDocument())
	require.NoError(t, err)

	assert.True(t, Changed(nil, base))
	assert.True(t, Changed(nil, models.Snapshot{}))
	assert.False(t, Changed(&base, base))

	clone := func() models.Snapshot {
		again, err := NewParser(WithClock(fixedClock)).Parse(weeklyDocument())
		require.NoError(t, err)
		return again
	}

	item := clone()
	item.Menus["2026-11-18"].Dinner[0] = "짬뽕"
	assert.True(t, Changed(&base, item))

	order := clone()
	lunch := order.Menus["2026-11-17"].Lunch
	lunch[0], lunch[1] = lunch[1], lunch[0]
	assert.True(t, Changed(&base, order))

	weekday := clone()
	entry := weekday.Menus["2026-11-19"]
	entry.Weekday = "목"
	weekday.Menus["2026-11-19"] = entry
	assert.True(t, Changed(&base, weekday))

	origin := clone()
	origin.Notice = ""
	assert.True(t, Changed(&base, origin))
	assert.NotEmpty(t, Diff(&base, origin))
}

func TestChangedTreatsNilAndEmptyListsAlike(t *testing.T) {
	t.Parallel()

	stored := models.Snapshot{Menus: map[string]models.MenuEntry{
		"2026-11-17": {Weekday: "월", Lunch: nil, Dinner: []string{"국"}},
	}}
	fresh := models.Snapshot{Menus: map[string]models.MenuEntry{
		"2026-11-17": {Weekday: "월", Lunch: []string{}, Dinner: []string{"국"}},
	}}

	assert.False(t, Changed(&stored, fresh))
	assert.Empty(t, Diff(&stored, fresh))
}
