package recognizer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"chartwatch/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Strategy-local failures. Both are absorbed by the orchestrator; neither is
// fatal to an extraction as a whole.
var (
	ErrTimeout   = errors.New("recognizer: call timed out")
	ErrMalformed = errors.New("recognizer: response not parseable")
)

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 500
)

// Client wraps the external vision model. It owns request shaping, timeouts,
// and parsing of the free-form response into a RawReading. The recognizer is
// untrusted: it may be slow, wrong, or malformed, and callers must treat an
// empty-but-well-formed reading as valid input to validation.
type Client struct {
	api    openai.Client
	tracer trace.Tracer
	model  string
	now    func() time.Time
}

func New(apiKey, model string, tracer trace.Tracer) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		api:    openai.NewClient(option.WithAPIKey(apiKey)),
		tracer: tracer,
		model:  model,
		now:    time.Now,
	}
}

// Extract sends the chart image with the given prompt and parses the response
// into a RawReading. It returns ErrTimeout when the deadline lapses and
// ErrMalformed when the response cannot be parsed into the slot structure.
func (c *Client) Extract(ctx context.Context, image domain.ChartImage, prompt string) (domain.RawReading, error) {
	ctx, span := c.tracer.Start(ctx, "recognizer.extract")
	defer span.End()

	mime := image.MimeType
	if mime == "" {
		mime = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image.Bytes))

	start := c.now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		MaxTokens:   openai.Int(defaultMaxTokens),
		Temperature: openai.Float(0),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    dataURL,
					Detail: "high",
				}),
			}),
		},
	})
	latency := c.now().Sub(start)
	span.SetAttributes(attribute.Int64("recognizer.latency_ms", latency.Milliseconds()))

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.RawReading{}, ErrTimeout
		}
		return domain.RawReading{}, fmt.Errorf("recognizer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.RawReading{}, ErrMalformed
	}

	raw := resp.Choices[0].Message.Content
	reading, err := ParseReading(raw)
	if err != nil {
		log.Printf("recognizer: malformed response (%v), raw: %.120s", err, raw)
		return domain.RawReading{}, ErrMalformed
	}
	reading.LatencyMS = latency.Milliseconds()
	return reading, nil
}
