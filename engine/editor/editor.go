// Package editor is a document session: it opens an LDraw file against the
// part library, applies edits, keeps synthesized groups up to date and
// rebuilds the vertex buffer the renderer draws.
package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spaghettifunk/bricklayer/engine/containers"
	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/ldraw"
	"github.com/spaghettifunk/bricklayer/engine/library"
	"github.com/spaghettifunk/bricklayer/engine/math"
	"github.com/spaghettifunk/bricklayer/engine/synth"
)

type Stage uint8

const (
	// Editor is in an uninitialized state
	EditorStageUninitialized Stage = iota
	// Editor is currently initializing
	EditorStageInitializing
	// Editor initialization is complete
	EditorStageInitialized
	// Editor is watching the part library
	EditorStageRunning
	// Editor is in the process of shutting down
	EditorStageShuttingDown
)

// MaxDiagnostics is how many diagnostics the editor keeps; older ones are
// dropped first.
const MaxDiagnostics = 256

// PollInterval is how often Run looks at the library watcher.
const PollInterval = 250 * time.Millisecond

// Diagnostic is a problem found while loading a document. Line is 0 for
// problems that are not tied to a line, such as unresolved references.
type Diagnostic struct {
	File string
	Line int
	Err  error
}

func (d Diagnostic) Error() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %v", d.File, d.Err)
	}
	return fmt.Sprintf("%s:%d: %v", d.File, d.Line, d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

type Editor struct {
	currentStage Stage
	config       *core.Config
	grid         ldraw.GridSpacing
	gridMode     ldraw.GridMode

	library *library.Library
	watcher *library.Watcher

	document    *ldraw.File
	diagnostics *containers.RingQueue[Diagnostic]
	vertices    []ldraw.VBOVertex

	clock *core.Clock
}

// New checks cfg and builds an editor. A nil cfg uses core.DefaultConfig.
func New(cfg *core.Config) (*Editor, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := ldraw.NewGridSpacing(cfg.Grid.Fine, cfg.Grid.Medium, cfg.Grid.Coarse)
	if err != nil {
		return nil, err
	}

	return &Editor{
		currentStage: EditorStageUninitialized,
		config:       cfg,
		grid:         grid,
		gridMode:     ldraw.GridFine,
		diagnostics:  containers.NewRingQueue[Diagnostic](MaxDiagnostics),
		clock:        core.NewClock(),
	}, nil
}

// Initialize loads what the configuration points at: the LDConfig colours,
// the synthesis class overrides and the part library.
func (e *Editor) Initialize() error {
	e.currentStage = EditorStageInitializing
	e.config.ApplyLogging()

	// initialize events
	if !core.EventInitialize() {
		core.LogDebug("event system already initialized")
	}
	core.EventRegister(core.EVENT_CODE_DIAGNOSTIC, e, e.onDiagnostic)
	core.EventRegister(core.EVENT_CODE_GROUP_SYNTHESIS_FAILED, e, e.onSynthesisFailed)

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	if path := e.config.Color.LDConfig; path != "" {
		if err := loadLDConfig(path); err != nil {
			return err
		}
	}
	if path := e.config.Synthesis.Classes; path != "" {
		if err := synth.Classes().LoadFile(path); err != nil {
			return err
		}
	}

	if root := e.config.Library.Path; root != "" {
		lib, err := library.New(root)
		if err != nil {
			return err
		}
		if err := lib.Load(); err != nil {
			return err
		}
		e.library = lib

		if e.config.Library.Watch {
			w, err := lib.Watch()
			if err != nil {
				return err
			}
			e.watcher = w
		}
	}

	e.currentStage = EditorStageInitialized
	return nil
}

func loadLDConfig(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	added, diagnostics := ldraw.ColorLibrary().LoadLDConfig(f)
	ldraw.LogDiagnostics(path, diagnostics)
	core.LogInfo("%d colours loaded from %s", added, path)
	return nil
}

func (e *Editor) Stage() Stage { return e.currentStage }

func (e *Editor) Library() *library.Library { return e.library }

func (e *Editor) Document() *ldraw.File { return e.document }

// Vertices is the buffer produced by the last Rebuild.
func (e *Editor) Vertices() []ldraw.VBOVertex { return e.vertices }

// Diagnostics returns the retained diagnostics, oldest first.
func (e *Editor) Diagnostics() []Diagnostic { return e.diagnostics.Items() }

// resolver hides a missing library behind a nil interface.
func (e *Editor) resolver() ldraw.PartResolver {
	if e.library == nil {
		return nil
	}
	return e.library
}

// Open reads the document at path and makes it the current one. A path
// whose base name is not an LDraw filename is refused with
// ErrInvalidFilename.
func (e *Editor) Open(path string) error {
	if !ldraw.IsLDrawFilenameValid(filepath.Base(path)) {
		return fmt.Errorf("%w: %s", core.ErrInvalidFilename, path)
	}
	f, diagnostics, err := ldraw.ParseFile(path)
	if err != nil {
		return err
	}
	e.setDocument(f, diagnostics)
	return nil
}

// OpenReader reads an unsaved document named name from r.
func (e *Editor) OpenReader(name string, r io.Reader) error {
	f, diagnostics := ldraw.Parse(name, r)
	e.setDocument(f, diagnostics)
	return nil
}

func (e *Editor) setDocument(f *ldraw.File, diagnostics []ldraw.ParseError) {
	e.document = f
	e.vertices = nil
	for _, d := range diagnostics {
		e.diagnose(Diagnostic{File: f.Name(), Line: d.Line, Err: d.Err})
	}
	e.resolveParts()
}

// resolveParts resolves every unresolved part of the document and follows
// "~Moved to" stubs to the part they name.
func (e *Editor) resolveParts() {
	var errs []error
	defer func() {
		for _, err := range errs {
			e.diagnose(Diagnostic{File: e.document.Name(), Err: err})
		}
	}()
	for range 4 {
		errs = e.document.ResolveParts(e.resolver())
		moved := false
		ldraw.Walk(e.document, func(d ldraw.Directive) bool {
			if p, ok := d.(*ldraw.Part); ok && ldraw.UpdateNameForMovedPart(p) {
				moved = true
			}
			return true
		})
		if !moved {
			return
		}
	}
}

func (e *Editor) diagnose(d Diagnostic) {
	e.diagnostics.Push(d)
	data := core.EventContext{}
	data.Data.C[0] = d.File
	data.Data.C[1] = d.Err.Error()
	data.Data.I64[0] = int64(d.Line)
	core.EventFire(core.EVENT_CODE_DIAGNOSTIC, e, data)
}

// SetGridMode picks the spacing used by nudges and snapping.
func (e *Editor) SetGridMode(mode ldraw.GridMode) {
	e.gridMode = mode
}

func (e *Editor) GridMode() ldraw.GridMode { return e.gridMode }

// GridSpacing is the distance of one nudge in the current grid mode.
func (e *Editor) GridSpacing() float32 { return e.grid.ForMode(e.gridMode) }

// Nudge moves d one grid step along direction.
func (e *Editor) Nudge(d ldraw.Drawable, direction math.Vec3) {
	d.MoveBy(ldraw.DisplacementForNudge(direction, e.GridSpacing()))
	e.changed(d)
}

// SnapToGrid moves d so its position lies on the current grid.
func (e *Editor) SnapToGrid(d ldraw.Drawable) {
	p := d.Position()
	d.MoveBy(ldraw.PositionSnappedToGrid(p, e.GridSpacing()).Sub(p))
	e.changed(d)
}

// SelectedDrawables returns the selected drawables of the document. A
// drawable inside a selected synthesized group is left out: it moves with
// the group.
func (e *Editor) SelectedDrawables() []ldraw.Drawable {
	if e.document == nil {
		return nil
	}
	var selected []ldraw.Drawable
	var groups []ldraw.Container
	ldraw.Walk(e.document, func(d ldraw.Directive) bool {
		dr, ok := d.(ldraw.Drawable)
		if !ok || !d.IsSelected() || IsGeneratedPart(d) {
			return true
		}
		if ldraw.IsAncestorInList(d, groups) {
			return true
		}
		selected = append(selected, dr)
		if c, ok := d.(ldraw.Container); ok {
			groups = append(groups, c)
		}
		return true
	})
	return selected
}

// IsGeneratedPart reports whether d is a segment derived by synthesis.
func IsGeneratedPart(d ldraw.Directive) bool {
	p, ok := d.(*ldraw.Part)
	return ok && p.IsGenerated()
}

// MoveSelection nudges every selected drawable one grid step along
// direction and returns how many moved.
func (e *Editor) MoveSelection(direction math.Vec3) int {
	selected := e.SelectedDrawables()
	for _, d := range selected {
		e.Nudge(d, direction)
	}
	return len(selected)
}

// MoveSelectionInView nudges the selection along the model axis closest
// to a direction on the camera's screen.
func (e *Editor) MoveSelectionInView(camera *Camera, screen math.Vec3) int {
	return e.MoveSelection(camera.NudgeVector(screen))
}

// SelectInRect replaces the selection with the visible drawables whose
// projected box lies inside rect, a window-space box whose depth is
// ignored. Members of a synthesized group are selected through the group.
func (e *Editor) SelectInRect(camera *Camera, viewport math.Viewport, rect math.Box3) int {
	if e.document == nil {
		return 0
	}
	ldraw.Walk(e.document, func(d ldraw.Directive) bool {
		d.SetSelected(false)
		return true
	})

	modelview := camera.GetView()
	projection := camera.GetProjection(viewport)
	count := 0
	ldraw.Walk(e.document, func(d ldraw.Directive) bool {
		dr, ok := d.(ldraw.Drawable)
		if !ok {
			return true
		}
		if dr.IsHidden() || IsGeneratedPart(d) {
			return false
		}
		box, err := ldraw.ProjectedBoundingBox(d, modelview, projection, viewport)
		if err == nil && !box.IsEmpty() &&
			box.Min.X >= rect.Min.X && box.Max.X <= rect.Max.X &&
			box.Min.Y >= rect.Min.Y && box.Max.Y <= rect.Max.Y {
			d.SetSelected(true)
			count++
		}
		_, isGroup := d.(*ldraw.LSynth)
		return !isGroup
	})
	return count
}

func (e *Editor) changed(d ldraw.Directive) {
	data := core.EventContext{}
	data.Data.C[0] = d.ID().String()
	core.EventFire(core.EVENT_CODE_DIRECTIVE_CHANGED, e, data)
}

// SynthesizedGroups lists the synthesized groups of the document in
// document order.
func (e *Editor) SynthesizedGroups() []*ldraw.LSynth {
	if e.document == nil {
		return nil
	}
	var groups []*ldraw.LSynth
	ldraw.Walk(e.document, func(d ldraw.Directive) bool {
		if l, ok := d.(*ldraw.LSynth); ok {
			groups = append(groups, l)
		}
		return true
	})
	return groups
}

// Rebuild synthesizes every stale group, resolves the segments it
// generated and packs the visible geometry of the document into a fresh
// vertex buffer.
func (e *Editor) Rebuild() []ldraw.VBOVertex {
	if e.document == nil {
		return nil
	}
	e.clock.Start()

	synthesized := 0
	for _, l := range e.SynthesizedGroups() {
		if !l.IsStale() {
			continue
		}
		data := core.EventContext{}
		data.Data.C[0] = l.ID().String()
		if err := l.Synthesize(); err != nil {
			data.Data.C[1] = err.Error()
			core.EventFire(core.EVENT_CODE_GROUP_SYNTHESIS_FAILED, e, data)
			continue
		}
		synthesized++
		data.Data.I32[0] = int32(len(l.SynthesizedParts()))
		core.EventFire(core.EVENT_CODE_GROUP_SYNTHESIZED, e, data)
	}
	if synthesized > 0 {
		for _, err := range e.document.ResolveParts(e.resolver()) {
			core.LogDebug("%s: %s", e.document.Name(), err)
		}
	}

	e.vertices = ldraw.BuildVertexBuffer(e.document, ldraw.DefaultColorCode)

	e.clock.Update()
	elapsed := e.clock.Elapsed()
	e.clock.Stop()
	core.MetricsUpdate(elapsed, len(e.vertices))

	data := core.EventContext{}
	data.Data.I64[0] = int64(len(e.vertices))
	data.Data.F64[0] = elapsed * 1000.0
	core.EventFire(core.EVENT_CODE_VERTEX_BUFFER_REBUILT, e, data)
	return e.vertices
}

// FrameBox is the box a camera frames to show the whole visible document.
func (e *Editor) FrameBox() math.Box3 {
	if e.document == nil {
		return math.NewBox3Empty()
	}
	return e.document.VisibleBoundingBox3()
}

// PollLibraryChanges applies the library changes reported since the last
// call and re-resolves the parts of the document that used a changed file.
// It never blocks and returns the number of changes applied.
func (e *Editor) PollLibraryChanges() int {
	if e.watcher == nil {
		return 0
	}
	applied := 0
	dropped := make(map[string]bool)
	for {
		select {
		case c, ok := <-e.watcher.Changes():
			if !ok {
				return e.reresolve(applied, dropped)
			}
			applied++
			for _, name := range e.library.Refresh(c) {
				dropped[name] = true
			}
			data := core.EventContext{}
			data.Data.C[0] = c.Name
			core.EventFire(core.EVENT_CODE_LIBRARY_CHANGED, e, data)
		default:
			return e.reresolve(applied, dropped)
		}
	}
}

func (e *Editor) reresolve(applied int, dropped map[string]bool) int {
	if e.document == nil || len(dropped) == 0 {
		return applied
	}
	ldraw.Walk(e.document, func(d ldraw.Directive) bool {
		if p, ok := d.(*ldraw.Part); ok && dropped[p.LookupName()] {
			p.SetReferenceName(p.ReferenceName())
		}
		return true
	})
	e.resolveParts()
	return applied
}

// Run keeps the document in step with the part library until ctx is done:
// library changes are applied and the document rebuilt on the calling
// goroutine.
func (e *Editor) Run(ctx context.Context) error {
	if e.watcher == nil {
		return fmt.Errorf("%w: library.watch is off", core.ErrInvalidConfig)
	}
	e.currentStage = EditorStageRunning

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-e.watcher.Errors():
			if ok {
				core.LogWarn("library watcher: %s", err)
			}
		case <-ticker.C:
			if e.PollLibraryChanges() > 0 && e.document != nil {
				e.Rebuild()
				rebuilds, last, avg := core.MetricsRebuild()
				core.LogInfo("rebuild #%d: %d vertices in %.2fms (avg %.2fms)", rebuilds, len(e.vertices), last, avg)
			}
		}
	}
}

func (e *Editor) Shutdown() error {
	e.currentStage = EditorStageShuttingDown
	core.EventUnregister(core.EVENT_CODE_DIAGNOSTIC, e)
	core.EventUnregister(core.EVENT_CODE_GROUP_SYNTHESIS_FAILED, e)
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			return err
		}
		e.watcher = nil
	}
	e.currentStage = EditorStageUninitialized
	return nil
}

func (e *Editor) onDiagnostic(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	if sender != listener {
		return false
	}
	if line := data.Data.I64[0]; line > 0 {
		core.LogWarn("%s:%d: %s", data.Data.C[0], line, data.Data.C[1])
	} else {
		core.LogWarn("%s: %s", data.Data.C[0], data.Data.C[1])
	}
	return false
}

func (e *Editor) onSynthesisFailed(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	if sender != listener {
		return false
	}
	core.LogWarn("synthesized group %s: %s", data.Data.C[0], data.Data.C[1])
	return false
}
