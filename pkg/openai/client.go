package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/korjavin/mealwatch/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// Client represents an OpenAI API client
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

// New creates a new OpenAI client
func New(apiKey, apiBase, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		config.BaseURL = apiBase
	}

	client := openai.NewClientWithConfig(config)
	return &Client{
		client:  client,
		model:   model,
		timeout: 60 * time.Second,
		logger:  logger.New("extract"),
	}
}

const extractPrompt = `You are reading a scanned weekly cafeteria menu table.
Transcribe the page row by row, top to bottom. Output one JSON array of strings, one string per printed row.
Within a row, separate table cells with a single space and keep the cells in left-to-right order.
Write "-" for an empty cell. Keep Korean text exactly as printed, including dates such as "11월 17일".
Only return the JSON array, no other text.`

// ExtractLines transcribes a page image into text rows
func (c *Client) ExtractLines(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	c.logger.Info("Transcribing %s page image (%d bytes)", mimeType, len(image))

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: extractPrompt,
				},
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: "Transcribe every row of this menu table into a JSON array.",
						},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    dataURL,
								Detail: openai.ImageURLDetailHigh,
							},
						},
					},
				},
			},
			Temperature: 0,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI API")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("OpenAI response (first 100 chars): %s", truncateString(content, 100))

	lines, err := parseLines(content)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Transcribed %d rows", len(lines))
	return lines, nil
}

// parseLines reads the model output as a JSON array of rows, falling back to
// one row per output line when the model ignored the format
func parseLines(content string) ([]string, error) {
	content = cleanJSONResponse(content)

	var rows []string
	if err := json.Unmarshal([]byte(content), &rows); err == nil {
		return nonEmpty(rows), nil
	}

	if strings.HasPrefix(content, "[") || strings.HasPrefix(content, "{") {
		return nil, fmt.Errorf("failed to parse OpenAI response: %s", truncateString(content, 100))
	}
	return nonEmpty(strings.Split(content, "\n")), nil
}

func nonEmpty(rows []string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if row = strings.TrimSpace(row); row != "" {
			out = append(out, row)
		}
	}
	return out
}

// truncateString truncates a string to at most maxLen runes
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// cleanJSONResponse cleans up the JSON response from OpenAI
// Sometimes the model returns markdown code blocks with ```json and ``` delimiters
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		// Skip the first line, which might be "```json"
		if firstLineEnd := strings.Index(s, "\n"); firstLineEnd != -1 {
			s = s[firstLineEnd+1:]
		}
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}

	return s
}
