package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, signals SignalReader) {
	server.AddResource(&mcp.Resource{
		URI:         "signals://pending",
		Name:        "signals-pending",
		Description: "Signals awaiting operator review",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if signals == nil {
			return nil, fmt.Errorf("signal service unavailable")
		}
		list, err := signals.ListPendingReview(ctx, defaultSignalLimit)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, signalsListOutput{Signals: list})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "signals://latest{?ticker,direction,status,limit}",
		Name:        "signals-latest",
		Description: "Recent extracted signals with optional ticker/direction/status/limit query params",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if signals == nil {
			return nil, fmt.Errorf("signal service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "signals" || parsed.Host != "latest" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		input := signalsListInput{
			Ticker:    parsed.Query().Get("ticker"),
			Direction: parsed.Query().Get("direction"),
			Status:    parsed.Query().Get("status"),
			Limit:     defaultSignalLimit,
		}
		if rawLimit := strings.TrimSpace(parsed.Query().Get("limit")); rawLimit != "" {
			n, err := strconv.Atoi(rawLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid limit: %s", rawLimit)
			}
			input.Limit = n
		}

		filter, err := normalizeSignalFilter(input)
		if err != nil {
			return nil, err
		}
		list, err := signals.ListSignals(ctx, filter)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, signalsListOutput{Signals: list})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "signals://id/{id}",
		Name:        "signal-by-id",
		Description: "One extracted signal by id",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if signals == nil {
			return nil, fmt.Errorf("signal service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "signals" || parsed.Host != "id" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		id, err := strconv.ParseInt(strings.Trim(strings.TrimSpace(parsed.Path), "/"), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid signal id")
		}

		signal, err := signals.GetSignal(ctx, id)
		if err != nil {
			return nil, err
		}
		if signal == nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return jsonResource(req.Params.URI, signalsGetOutput{Signal: signal})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "stats://summary{?hours}",
		Name:        "stats-summary",
		Description: "Signal activity summary; optional hours query param",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if signals == nil {
			return nil, fmt.Errorf("signal service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "stats" || parsed.Host != "summary" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		hours := defaultStatsHours
		if rawHours := strings.TrimSpace(parsed.Query().Get("hours")); rawHours != "" {
			n, err := strconv.Atoi(rawHours)
			if err != nil {
				return nil, fmt.Errorf("invalid hours: %s", rawHours)
			}
			hours, err = normalizeStatsHours(n)
			if err != nil {
				return nil, err
			}
		}

		stats, err := signals.Stats(ctx, time.Duration(hours)*time.Hour)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, signalsStatsOutput{Stats: stats, WindowHours: hours})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
