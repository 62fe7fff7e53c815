package live

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"themeport/colors"
	"themeport/theme"
	"themeport/tokens"
)

// ErrInvalidValue is returned for edits which cannot be applied.
var ErrInvalidValue = errors.New("invalid token value")

// Session is an editing session over a theme. Updates coming from color
// picker drag are coalesced to one apply per frame, typed values are applied
// immediately.
type Session struct {
	log     *zap.Logger
	applier Applier
	sched   *FrameScheduler

	flushMu sync.Mutex // serializes flushes
	mu      sync.Mutex
	current *theme.Result
	dirty   [2]bool
	errs    error
}

// NewSession starts session with copy of initial tokens, initial may be nil.
func NewSession(initial *theme.Result, a Applier, sched *FrameScheduler, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if sched == nil {
		sched = NewFrameScheduler(DefaultFrame)
	}
	cur := &theme.Result{Light: theme.Tokens{}, Dark: theme.Tokens{}}
	if initial != nil {
		cur.Light, cur.Dark = cloneTokens(initial.Light), cloneTokens(initial.Dark)
	}
	return &Session{
		log:     log.Named("live"),
		applier: a,
		sched:   sched,
		current: cur,
	}
}

// PickColor sets token from color picker hex and schedules coalesced apply.
func (s *Session) PickColor(v theme.Variant, key tokens.Key, hex string) error {
	c, err := colors.Parse(hex)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	if _, ok := c.(colors.Hex); !ok {
		return fmt.Errorf("%w: picker value %q is not hex", ErrInvalidValue, hex)
	}
	if err := s.set(v, key, c.String()); err != nil {
		return err
	}

	s.mu.Lock()
	s.dirty[v] = true
	s.mu.Unlock()

	replaced, err := s.sched.Schedule(s.flush)
	if err != nil {
		return err
	}
	if replaced {
		s.log.Debug("Pending apply replaced", zap.Stringer("variant", v), zap.Stringer("key", key))
	}
	return nil
}

// TypeColor sets token from text input and applies variant right away.
func (s *Session) TypeColor(v theme.Variant, key tokens.Key, value string) error {
	c, err := colors.Parse(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	if key.IsColor() && !colors.IsColor(c) {
		return fmt.Errorf("%w: %q is not a color", ErrInvalidValue, value)
	}
	if err := s.set(v, key, value); err != nil {
		return err
	}
	return s.apply(v)
}

// Load replaces tokens of both variants, for example after source
// stylesheet was re-imported. Changed variants are applied on the next frame.
func (s *Session) Load(res *theme.Result) error {
	if res == nil {
		return fmt.Errorf("%w: nothing to load", ErrInvalidValue)
	}

	changed := false
	s.mu.Lock()
	for _, v := range theme.Variants() {
		if maps.Equal(s.current.Get(v), res.Get(v)) {
			continue
		}
		if v == theme.Dark {
			s.current.Dark = cloneTokens(res.Dark)
		} else {
			s.current.Light = cloneTokens(res.Light)
		}
		s.dirty[v] = true
		changed = true
	}
	s.mu.Unlock()

	if !changed {
		return nil
	}
	if _, err := s.sched.Schedule(s.flush); err != nil {
		return err
	}
	return nil
}

func (s *Session) set(v theme.Variant, key tokens.Key, value string) error {
	if !key.Valid() {
		return fmt.Errorf("%w: unknown token %q", ErrInvalidValue, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Get(v)[key] = value
	return nil
}

// Flush applies pending changes without waiting for the next frame, it
// returns when no apply is in progress.
func (s *Session) Flush() {
	s.sched.Cancel()
	s.flush()
}

// flush applies every variant changed since the last frame.
func (s *Session) flush() {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	dirty := s.dirty
	s.dirty = [2]bool{}
	s.mu.Unlock()

	for _, v := range theme.Variants() {
		if !dirty[v] {
			continue
		}
		if err := s.apply(v); err != nil {
			s.log.Warn("Unable to apply tokens", zap.Stringer("variant", v), zap.Error(err))
			s.mu.Lock()
			s.errs = multierr.Append(s.errs, err)
			s.mu.Unlock()
		}
	}
}

func (s *Session) apply(v theme.Variant) error {
	s.mu.Lock()
	snapshot := cloneTokens(s.current.Get(v))
	s.mu.Unlock()
	return s.applier.Apply(v, snapshot)
}

// Tokens returns copy of current variant tokens.
func (s *Session) Tokens(v theme.Variant) theme.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTokens(s.current.Get(v))
}

// Result returns copy of current tokens of both variants.
func (s *Session) Result() *theme.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &theme.Result{Light: cloneTokens(s.current.Light), Dark: cloneTokens(s.current.Dark)}
}

// Close withdraws pending apply, it returns errors of coalesced applies
// which happened during the session.
func (s *Session) Close() error {
	if s.sched.Cancel() {
		s.log.Debug("Pending apply withdrawn on close")
	}
	s.sched.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}
