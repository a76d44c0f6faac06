// Package chat is a small Slack Web API client: modals, channel messages and DMs.
package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"contractflow/internal/providers"
)

const ProviderID = "slack"

type Config struct {
	BaseURL       string
	BotToken      string
	SigningSecret string
	ChannelID     string
}

// Message is a chat.postMessage payload.
type Message struct {
	Channel string  `json:"channel"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks,omitempty"`
}

// envelope is the shape every Slack Web API response shares.
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type Client struct {
	cfg    Config
	caller *providers.Caller
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		caller: &providers.Caller{
			ProviderID: ProviderID,
			BaseURL:    cfg.BaseURL,
			HTTP:       &http.Client{},
			Authorize: func(h http.Header) {
				h.Set("Authorization", "Bearer "+cfg.BotToken)
			},
			DecodeError: func(body []byte) string {
				var e envelope
				if json.Unmarshal(body, &e) != nil {
					return ""
				}
				return e.Error
			},
		},
		logger: logger,
	}
}

// ChannelID is the default report channel.
func (c *Client) ChannelID() string {
	return c.cfg.ChannelID
}

// Describe implements providers.Provider.
func (c *Client) Describe() providers.Descriptor {
	return providers.Descriptor{
		ID:         ProviderID,
		Kind:       providers.KindChat,
		BaseURL:    c.cfg.BaseURL,
		Configured: c.cfg.BotToken != "",
		Credentials: map[string]string{
			"bot_token":      providers.Mask(c.cfg.BotToken),
			"signing_secret": providers.Mask(c.cfg.SigningSecret),
			"channel_id":     c.cfg.ChannelID,
		},
	}
}

// call posts a JSON payload to a Web API method and checks the ok flag.
func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := providers.JSONBody(payload)
	if err != nil {
		return err
	}
	raw, err := c.caller.Do(ctx, providers.Request{
		Operation:   method,
		Method:      http.MethodPost,
		Path:        "/" + method,
		Body:        body,
		ContentType: "application/json; charset=utf-8",
	})
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return c.caller.Fail(method, providers.ErrorBadData, "decode response: "+err.Error())
	}
	if !env.OK {
		return c.caller.Fail(method, categoryFor(env.Error), env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return c.caller.Fail(method, providers.ErrorBadData, "decode response: "+err.Error())
		}
	}
	return nil
}

func categoryFor(slackErr string) providers.ErrorCategory {
	switch slackErr {
	case "not_authed", "invalid_auth", "account_inactive", "token_revoked", "token_expired", "missing_scope":
		return providers.ErrorAuthentication
	case "ratelimited":
		return providers.ErrorRateLimited
	case "channel_not_found", "user_not_found":
		return providers.ErrorNotFound
	case "expired_trigger_id":
		return providers.ErrorTimeout
	case "internal_error", "fatal_error", "service_unavailable":
		return providers.ErrorProviderOutage
	default:
		return providers.ErrorRejected
	}
}

// OpenView opens a modal in response to an interaction's trigger id.
func (c *Client) OpenView(ctx context.Context, triggerID string, view View) error {
	return c.call(ctx, "views.open", map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	}, nil)
}

// PostMessage posts msg and returns the message timestamp.
func (c *Client) PostMessage(ctx context.Context, msg Message) (string, error) {
	var out struct {
		TS string `json:"ts"`
	}
	if err := c.call(ctx, "chat.postMessage", msg, &out); err != nil {
		return "", err
	}
	return out.TS, nil
}

// OpenDM opens (or reuses) a direct message channel with userID.
func (c *Client) OpenDM(ctx context.Context, userID string) (string, error) {
	var out struct {
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}
	if err := c.call(ctx, "conversations.open", map[string]string{"users": userID}, &out); err != nil {
		return "", err
	}
	if out.Channel.ID == "" {
		return "", c.caller.Fail("conversations.open", providers.ErrorBadData, "no channel id in response")
	}
	return out.Channel.ID, nil
}
