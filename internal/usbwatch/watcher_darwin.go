package usbwatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

const (
	coreFoundationPath = "/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation"
	ioKitPath          = "/System/Library/Frameworks/IOKit.framework/IOKit"

	numberSInt16 = 2
	numberSInt32 = 3
	utf8Encoding = 0x08000100
)

type (
	cfRef      uintptr
	hidManager uintptr
	hidDevice  uintptr
)

// Framework entry points, resolved on first use.
var (
	cfDictionaryCreateMutable func(alloc cfRef, capacity int64, keyCallbacks, valueCallbacks uintptr) cfRef
	cfDictionarySetValue      func(dict cfRef, key, value cfRef)
	cfNumberCreate            func(alloc cfRef, numberType int64, value unsafe.Pointer) cfRef
	cfNumberGetValue          func(number cfRef, numberType int64, value unsafe.Pointer) bool
	cfRelease                 func(ref cfRef)
	cfRunLoopGetCurrent       func() cfRef
	cfRunLoopRun              func()
	cfRunLoopStop             func(loop cfRef)
	cfStringCreateWithBytes   func(alloc cfRef, bytes []byte, n int64, encoding uint32, external bool) cfRef

	hidDeviceGetProperty      func(dev hidDevice, key cfRef) cfRef
	hidManagerClose           func(m hidManager, opts uint32) int32
	hidManagerCreate          func(alloc cfRef, opts uint32) hidManager
	hidManagerOpen            func(m hidManager, opts uint32) int32
	hidManagerSetMatching     func(m hidManager, matching cfRef)
	hidManagerOnMatch         func(m hidManager, callback uintptr, context unsafe.Pointer)
	hidManagerScheduleRunLoop func(m hidManager, loop cfRef, mode cfRef)

	runLoopDefaultMode  uintptr
	dictKeyCallbacks    uintptr
	dictValueCallbacks  uintptr
	vendorIDKey         cfRef
	onMatchCallbackAddr uintptr
)

var load = sync.OnceValue(func() error {
	cf, err := purego.Dlopen(coreFoundationPath, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("loading CoreFoundation: %w", err)
	}
	iokit, err := purego.Dlopen(ioKitPath, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("loading IOKit: %w", err)
	}

	for name, fn := range map[string]any{
		"CFDictionaryCreateMutable": &cfDictionaryCreateMutable,
		"CFDictionarySetValue":      &cfDictionarySetValue,
		"CFNumberCreate":            &cfNumberCreate,
		"CFNumberGetValue":          &cfNumberGetValue,
		"CFRelease":                 &cfRelease,
		"CFRunLoopGetCurrent":       &cfRunLoopGetCurrent,
		"CFRunLoopRun":              &cfRunLoopRun,
		"CFRunLoopStop":             &cfRunLoopStop,
		"CFStringCreateWithBytes":   &cfStringCreateWithBytes,
	} {
		purego.RegisterLibFunc(fn, cf, name)
	}
	for name, fn := range map[string]any{
		"IOHIDDeviceGetProperty":                     &hidDeviceGetProperty,
		"IOHIDManagerClose":                          &hidManagerClose,
		"IOHIDManagerCreate":                         &hidManagerCreate,
		"IOHIDManagerOpen":                           &hidManagerOpen,
		"IOHIDManagerSetDeviceMatching":              &hidManagerSetMatching,
		"IOHIDManagerRegisterDeviceMatchingCallback": &hidManagerOnMatch,
		"IOHIDManagerScheduleWithRunLoop":            &hidManagerScheduleRunLoop,
	} {
		purego.RegisterLibFunc(fn, iokit, name)
	}

	for name, sym := range map[string]*uintptr{
		"kCFRunLoopDefaultMode":           &runLoopDefaultMode,
		"kCFTypeDictionaryKeyCallBacks":   &dictKeyCallbacks,
		"kCFTypeDictionaryValueCallBacks": &dictValueCallbacks,
	} {
		if *sym, err = purego.Dlsym(cf, name); err != nil {
			return fmt.Errorf("resolving %s: %w", name, err)
		}
	}

	vendorIDKey = cfString("VendorID")
	onMatchCallbackAddr = purego.NewCallback(onMatch)
	return nil
})

func cfString(s string) cfRef {
	b := []byte(s)
	return cfStringCreateWithBytes(0, b, int64(len(b)), utf8Encoding, false)
}

// watcher is what the matching callback reports to. IOKit only gets an
// opaque context pointer, so the active watcher lives in a package variable.
type watcher struct {
	ch       chan<- struct{}
	vendorID uint16
	logger   *slog.Logger
}

var (
	activeMu sync.Mutex
	active   *watcher
)

func onMatch(_ unsafe.Pointer, _ int32, _ uintptr, dev hidDevice) {
	activeMu.Lock()
	w := active
	activeMu.Unlock()
	if w == nil {
		return
	}
	if vid, ok := vendorOf(dev); !ok || vid != w.vendorID {
		return
	}
	w.logger.Info("USB device arrived", "vendor", fmt.Sprintf("0x%04x", w.vendorID))
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func vendorOf(dev hidDevice) (uint16, bool) {
	prop := hidDeviceGetProperty(dev, vendorIDKey)
	if prop == 0 {
		return 0, false
	}
	var vid uint16
	return vid, cfNumberGetValue(prop, numberSInt16, unsafe.Pointer(&vid))
}

// matching builds {VendorID: vendorID} so IOKit only reports that vendor.
func matching(vendorID uint16) cfRef {
	dict := cfDictionaryCreateMutable(0, 1, dictKeyCallbacks, dictValueCallbacks)
	v := int32(vendorID)
	num := cfNumberCreate(0, numberSInt32, unsafe.Pointer(&v))
	cfDictionarySetValue(dict, vendorIDKey, num)
	cfRelease(num)
	return dict
}

// watch runs an IOHIDManager on its own locked thread. IOKit calls back for
// devices already present as well as new arrivals.
func watch(ctx context.Context, vendorID uint16, logger *slog.Logger) <-chan struct{} {
	ch := make(chan struct{}, 1)
	if err := load(); err != nil {
		logger.Error("USB hotplug unavailable", "error", err)
		return ch
	}

	activeMu.Lock()
	active = &watcher{ch: ch, vendorID: vendorID, logger: logger}
	activeMu.Unlock()

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer func() {
			activeMu.Lock()
			active = nil
			activeMu.Unlock()
		}()

		mgr := hidManagerCreate(0, 0)
		defer cfRelease(cfRef(mgr))
		if rv := hidManagerOpen(mgr, 0); rv != 0 {
			logger.Error("open IOHIDManager", "code", fmt.Sprintf("0x%08x", uint32(rv)))
			return
		}
		defer hidManagerClose(mgr, 0)

		dict := matching(vendorID)
		hidManagerSetMatching(mgr, dict)
		cfRelease(dict)

		loop := cfRunLoopGetCurrent()
		hidManagerScheduleRunLoop(mgr, loop, **(**cfRef)(unsafe.Pointer(&runLoopDefaultMode)))
		hidManagerOnMatch(mgr, onMatchCallbackAddr, nil)

		go func() {
			<-ctx.Done()
			cfRunLoopStop(loop)
		}()

		logger.Debug("Listening for USB HID arrivals", "vendor", fmt.Sprintf("0x%04x", vendorID))
		cfRunLoopRun()
		logger.Debug("USB watch stopped")
	}()

	return ch
}
