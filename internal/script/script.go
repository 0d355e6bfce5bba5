// Package script lets a user-supplied JavaScript file take over payload
// validation and URL extraction, for metadata APIs whose response shape has
// drifted from what the built-in extractors expect.
//
// The script must define a global function
//
//	function extract(payload, platform) { return {video: [...], audio: "..."} }
//
// where video may be a single string or an array. It may also define
// validate(payload, platform) returning a boolean; without it the built-in
// validator is used.
package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"
	"github.com/mitchellh/mapstructure"

	"github.com/ytget/mediadl/errs"
	"github.com/ytget/mediadl/internal/logger"
	"github.com/ytget/mediadl/platform"
	"github.com/ytget/mediadl/types"
)

const (
	fnExtract  = "extract"
	fnValidate = "validate"

	// DefaultTimeout bounds a single script invocation.
	DefaultTimeout = 5 * time.Second
)

// Extractor runs a compiled user script. Every call gets a fresh VM, so an
// Extractor is safe for concurrent use.
type Extractor struct {
	path        string
	program     *goja.Program
	hasValidate bool
	timeout     time.Duration
	log         *logger.ComponentLogger
}

// Load reads and compiles the script at path and checks that it defines
// extract.
func Load(path string) (*Extractor, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Compile(path, string(src))
}

// Compile compiles src; name is used in error positions.
func Compile(name, src string) (*Extractor, error) {
	program, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	e := &Extractor{
		path:    name,
		program: program,
		timeout: DefaultTimeout,
		log:     logger.WithComponent(logger.ComponentScript),
	}

	vm, err := e.vm()
	if err != nil {
		return nil, err
	}
	if _, ok := goja.AssertFunction(vm.Get(fnExtract)); !ok {
		return nil, fmt.Errorf("%s function not found in script %s", fnExtract, name)
	}
	_, e.hasValidate = goja.AssertFunction(vm.Get(fnValidate))
	return e, nil
}

// WithTimeout sets the per-call execution limit.
func (e *Extractor) WithTimeout(d time.Duration) *Extractor {
	if d > 0 {
		e.timeout = d
	}
	return e
}

// Validate implements the extractor interface.
func (e *Extractor) Validate(p platform.Platform, payload types.Payload) bool {
	if !e.hasValidate {
		return platform.Validate(p, payload)
	}
	res, err := e.call(fnValidate, p, payload)
	if err != nil {
		e.log.Warn("validate failed", logger.Fields{"script": e.path, "error": err.Error()})
		return false
	}
	return res.ToBoolean()
}

// Extract implements the extractor interface. Script failures and results of
// the wrong shape wrap errs.ErrInvalidResponse.
func (e *Extractor) Extract(p platform.Platform, payload types.Payload) (types.DownloadURLs, error) {
	empty := types.DownloadURLs{Video: []string{}}
	res, err := e.call(fnExtract, p, payload)
	if err != nil {
		return empty, fmt.Errorf("%w: %s: %w", errs.ErrInvalidResponse, fnExtract, err)
	}
	if goja.IsUndefined(res) || goja.IsNull(res) {
		return empty, fmt.Errorf("%w: %s returned undefined/null", errs.ErrInvalidResponse, fnExtract)
	}

	var out struct {
		Video []string `mapstructure:"video"`
		Audio string   `mapstructure:"audio"`
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return empty, err
	}
	if err := dec.Decode(res.Export()); err != nil {
		return empty, fmt.Errorf("%w: unexpected %s result: %w", errs.ErrInvalidResponse, fnExtract, err)
	}

	urls := types.DownloadURLs{Video: make([]string, 0, len(out.Video)), Audio: out.Audio}
	for _, v := range out.Video {
		if v != "" {
			urls.Video = append(urls.Video, v)
		}
	}
	return urls, nil
}

// PickVideo implements the extractor interface using the generic variant
// rule over the script's video list.
func (e *Extractor) PickVideo(p platform.Platform, payload types.Payload, quality types.Quality) (string, bool) {
	urls, err := e.Extract(p, payload)
	if err != nil {
		return "", false
	}
	return platform.PickFrom(urls.Video, quality)
}

// vm creates a runtime with the program loaded.
func (e *Extractor) vm() (*goja.Runtime, error) {
	vm := goja.New()
	_ = vm.Set("console", map[string]any{
		"log": func(args ...any) {
			e.log.Debug("console.log", logger.Fields{"script": e.path, "args": fmt.Sprint(args...)})
		},
	})

	timer := time.AfterFunc(e.timeout, func() { vm.Interrupt("script timeout") })
	defer timer.Stop()
	if _, err := vm.RunProgram(e.program); err != nil {
		return nil, fmt.Errorf("run script: %w", err)
	}
	return vm, nil
}

func (e *Extractor) call(name string, p platform.Platform, payload types.Payload) (goja.Value, error) {
	vm, err := e.vm()
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(vm.Get(name))
	if !ok {
		return nil, errors.New(name + " function not found in script")
	}

	arg, err := toNative(vm, payload)
	if err != nil {
		return nil, err
	}

	timer := time.AfterFunc(e.timeout, func() { vm.Interrupt("script timeout") })
	defer timer.Stop()
	return fn(goja.Undefined(), arg, vm.ToValue(p.String()))
}

// toNative turns payload into plain JS objects and arrays via JSON.parse so
// scripts see ordinary values rather than wrapped Go maps.
func toNative(vm *goja.Runtime, payload types.Payload) (goja.Value, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	parse, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse"))
	if !ok {
		return nil, errors.New("JSON.parse unavailable")
	}
	return parse(goja.Undefined(), vm.ToValue(string(raw)))
}
