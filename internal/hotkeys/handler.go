package hotkeys

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/tessera/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Sink receives the configured name of a pressed binding, e.g. "Mod4-Return".
type Sink func(key string)

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	sink   Sink
	logger *slog.Logger

	mu    sync.Mutex
	bound []string
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler. Backends without X11 access get
// a handler whose registrations fail.
func NewHandler(backend platform.Backend, sink Sink, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}

	if xu != nil {
		ignoreModsOnce.Do(func() {
			configureIgnoreMods(xu)
		})
	}

	return &Handler{
		xu:     xu,
		root:   root,
		sink:   sink,
		logger: logger,
	}
}

// Bind replaces every registered binding with keys. Keys that fail to
// grab are logged and skipped; the first failure is returned.
func (h *Handler) Bind(keys []string) error {
	if h.xu == nil {
		return fmt.Errorf("key bindings need an X11 backend")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	keybind.Detach(h.xu, h.root)
	h.bound = h.bound[:0]

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var firstErr error
	for _, key := range sorted {
		key := key
		if err := h.RegisterFunc(key, func() { h.sink(key) }); err != nil {
			h.logger.Warn("failed to grab key binding", "key", key, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("bind %s: %w", key, err)
			}
			continue
		}
		h.bound = append(h.bound, key)
	}
	h.logger.Info("key bindings registered", "count", len(h.bound))
	return firstErr
}

// Bound returns the successfully registered bindings.
func (h *Handler) Bound() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.bound...)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
