package verbosity

import (
	"context"
	"log/slog"
)

// Key is the fixed setting name of the global log override.
const Key = "healHeadings.logResults"

// Source tells where the effective verbosity comes from.
type Source string

const (
	SourceOverride    Source = "override"
	SourceCallSite    Source = "call-site"
	SourceUnavailable Source = "unavailable"
)

// Status is the current state of the override.
type Status struct {
	Source  Source `json:"source"`
	Value   string `json:"value,omitempty"` // Raw stored value when Source is override.
	Enabled bool   `json:"enabled"`         // Meaningful only for an override.
	Message string `json:"message"`
}

// Controller manages the override. A nil store is tolerated: every
// operation logs a warning and falls back to the call-site option.
type Controller struct {
	store Store
	log   *slog.Logger
}

// NewController returns a Controller over store. A nil log discards output.
func NewController(store Store, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{store: store, log: log}
}

// Enable turns verbose logging on for every heal call.
func (c *Controller) Enable(ctx context.Context) bool {
	return c.set(ctx, "true", "enable")
}

// Disable turns verbose logging off for every heal call.
func (c *Controller) Disable(ctx context.Context) bool {
	return c.set(ctx, "false", "disable")
}

func (c *Controller) set(ctx context.Context, value, op string) bool {
	if c == nil {
		return false
	}
	if c.store == nil {
		c.log.Warn("settings store not available, cannot " + op + " global heading logging")
		return false
	}
	if err := c.store.Set(ctx, Key, value); err != nil {
		c.log.Warn("failed to "+op+" global heading logging", "error", err)
		return false
	}
	if value == "true" {
		c.log.Info("detailed heading logging enabled globally")
	} else {
		c.log.Info("detailed heading logging disabled globally")
	}
	return true
}

// Clear removes the override so the call-site option applies again.
func (c *Controller) Clear(ctx context.Context) bool {
	if c == nil {
		return false
	}
	if c.store == nil {
		c.log.Warn("settings store not available, cannot clear global heading logging")
		return false
	}
	if err := c.store.Remove(ctx, Key); err != nil {
		c.log.Warn("failed to clear global heading logging", "error", err)
		return false
	}
	c.log.Info("heading logging reset, call-site option applies")
	return true
}

// Status reports the current override.
func (c *Controller) Status(ctx context.Context) Status {
	if c == nil {
		return Status{Source: SourceUnavailable, Message: "settings store not available"}
	}
	if c.store == nil {
		st := Status{Source: SourceUnavailable, Message: "settings store not available"}
		c.log.Info("heading logging status", "source", st.Source)
		return st
	}
	v, ok, err := c.store.Get(ctx, Key)
	if err != nil {
		c.log.Warn("failed to read heading logging override", "error", err)
		return Status{Source: SourceUnavailable, Message: "settings store error: " + err.Error()}
	}
	var st Status
	if !ok {
		st = Status{Source: SourceCallSite, Message: "using call-site option (no override set)"}
	} else {
		st = Status{Source: SourceOverride, Value: v, Enabled: v == "true"}
		if st.Enabled {
			st.Message = "enabled (override)"
		} else {
			st.Message = "disabled (override)"
		}
	}
	c.log.Info("heading logging status", "source", st.Source, "value", st.Value)
	return st
}

// Effective returns the verbosity a heal call should use given its own
// option. A stored override wins; any store problem yields callSite.
func (c *Controller) Effective(ctx context.Context, callSite bool) bool {
	if c == nil || c.store == nil {
		return callSite
	}
	v, ok, err := c.store.Get(ctx, Key)
	if err != nil {
		c.log.Warn("failed to read heading logging override", "error", err)
		return callSite
	}
	if !ok {
		return callSite
	}
	return v == "true"
}
