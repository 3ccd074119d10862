package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, signals SignalReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "signals_list",
		Description: "Get recent extracted trade signals with optional ticker/direction/status filters",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalsListInput) (*mcp.CallToolResult, signalsListOutput, error) {
		if signals == nil {
			return nil, signalsListOutput{}, fmt.Errorf("signal service unavailable")
		}
		filter, err := normalizeSignalFilter(in)
		if err != nil {
			return nil, signalsListOutput{}, err
		}
		result, err := signals.ListSignals(ctx, filter)
		if err != nil {
			return nil, signalsListOutput{}, err
		}
		return nil, signalsListOutput{Signals: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signals_get",
		Description: "Get one extracted trade signal by id",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalsGetInput) (*mcp.CallToolResult, signalsGetOutput, error) {
		if signals == nil {
			return nil, signalsGetOutput{}, fmt.Errorf("signal service unavailable")
		}
		if in.ID <= 0 {
			return nil, signalsGetOutput{}, fmt.Errorf("id must be a positive integer")
		}
		result, err := signals.GetSignal(ctx, in.ID)
		if err != nil {
			return nil, signalsGetOutput{}, err
		}
		if result == nil {
			return nil, signalsGetOutput{}, fmt.Errorf("signal %d not found", in.ID)
		}
		return nil, signalsGetOutput{Signal: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signals_stats",
		Description: "Summarize signal activity over a window given in hours",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalsStatsInput) (*mcp.CallToolResult, signalsStatsOutput, error) {
		if signals == nil {
			return nil, signalsStatsOutput{}, fmt.Errorf("signal service unavailable")
		}
		hours, err := normalizeStatsHours(in.Hours)
		if err != nil {
			return nil, signalsStatsOutput{}, err
		}
		stats, err := signals.Stats(ctx, time.Duration(hours)*time.Hour)
		if err != nil {
			return nil, signalsStatsOutput{}, err
		}
		return nil, signalsStatsOutput{Stats: stats, WindowHours: hours}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signals_review",
		Description: "Confirm or discard a signal that is pending review",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalsReviewInput) (*mcp.CallToolResult, signalsReviewOutput, error) {
		if signals == nil {
			return nil, signalsReviewOutput{}, fmt.Errorf("signal service unavailable")
		}
		if in.ID <= 0 {
			return nil, signalsReviewOutput{}, fmt.Errorf("id must be a positive integer")
		}
		confirm, err := normalizeDecision(in.Decision)
		if err != nil {
			return nil, signalsReviewOutput{}, err
		}
		result, err := signals.Review(ctx, in.ID, confirm)
		if err != nil {
			return nil, signalsReviewOutput{}, err
		}
		return nil, signalsReviewOutput{Signal: result}, nil
	})
}
