package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hubastard/quadpick/engine/assets"
	"github.com/hubastard/quadpick/engine/colors"
	"github.com/hubastard/quadpick/engine/core"
	"github.com/hubastard/quadpick/engine/gfx/soft"
	"github.com/hubastard/quadpick/engine/picking"
	"github.com/hubastard/quadpick/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClicks(t *testing.T) {
	cs, err := parseClicks(" 1,2 ; 3.5, 4;;")
	require.NoError(t, err)
	assert.Equal(t, []click{{1, 2}, {3.5, 4}}, cs)

	cs, err = parseClicks("")
	require.NoError(t, err)
	assert.Empty(t, cs)

	for _, bad := range []string{"1", "a,2", "1,b"} {
		_, err := parseClicks(bad)
		assert.Error(t, err, bad)
	}
}

// A 640x360 point window at scale 2 gives a 1280x720 framebuffer, so the
// default layout's quads sit at these points.
var defaultCentres = []click{
	{320, 180}, // 1
	{120, 70},  // 2
	{520, 70},  // 3
	{120, 250}, // 4
	{520, 250}, // 5
	{5, 5},     // background
}

func testConfig() core.Config {
	return core.Config{Title: "quadpick", Width: 640, Height: 360, ClearColor: colors.Teal}
}

func TestRunHeadlessResolvesClicks(t *testing.T) {
	dir := t.TempDir()
	app := &App{layout: scene.DefaultLayout(), outDir: dir, zoom: 1}

	var out bytes.Buffer
	ids, err := runHeadless(context.Background(), app, testConfig(), headlessOptions{
		Scale:  2,
		Frames: 3,
		Clicks: defaultCentres,
		Out:    &out,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, picking.NoSelection}, ids)
	assert.Contains(t, out.String(), "320,180\t1\n")
	assert.Contains(t, out.String(), "wrote ")

	matches, err := filepath.Glob(filepath.Join(dir, "pick-*.png"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	img, err := assets.LoadPNG(matches[0])
	require.NoError(t, err)
	assert.Equal(t, 1280, img.Rect.Dx())
	c := img.RGBAAt(240, 140) // quad 2 in pixels
	assert.Equal(t, 2, picking.DecodeID(c.R, c.G, c.B))
	c = img.RGBAAt(2, 2)
	assert.Equal(t, picking.NoSelection, picking.DecodeID(c.R, c.G, c.B))

	beauty, err := filepath.Glob(filepath.Join(dir, "beauty-*.png"))
	require.NoError(t, err)
	assert.Len(t, beauty, 1)
}

func TestRunHeadlessFlipY(t *testing.T) {
	cfg := testConfig()
	cfg.FlipY = true
	app := &App{layout: scene.DefaultLayout()}

	// quad 2 is top-left; with a bottom-left origin its y is 360-70
	ids, err := runHeadless(context.Background(), app, cfg, headlessOptions{
		Scale:  2,
		Clicks: []click{{120, 290}, {120, 70}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, ids)
}

func TestRunHeadlessBadLayout(t *testing.T) {
	app := &App{layout: scene.Layout{}}
	_, err := runHeadless(context.Background(), app, testConfig(), headlessOptions{Scale: 1})
	assert.ErrorIs(t, err, scene.ErrInvalidLayout)
}

func newTestEngine(t *testing.T, app *App) (*core.Engine, *core.HeadlessWindow) {
	t.Helper()
	cfg := testConfig()
	win := core.NewHeadlessWindow(cfg.Width, cfg.Height, 2, 0)
	eng, err := core.NewEngine(cfg, win, soft.NewRenderer)
	require.NoError(t, err)
	t.Cleanup(eng.Renderer.Shutdown)
	win.SetEventCallback(func(ev core.Event) { eng.HandleEvent(app, ev) })
	require.NoError(t, app.OnStart(eng))
	t.Cleanup(func() { eng.Layers.DetachAll(eng) })
	return eng, win
}

func renderAndWait(t *testing.T, eng *core.Engine, app *App) {
	t.Helper()
	require.NoError(t, eng.Frame(app, colors.Teal, 0))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, eng.Renderer.(*soft.Renderer).Wait(ctx))
}

func TestPickLayerSelectionPulses(t *testing.T) {
	app := &App{layout: scene.DefaultLayout(), title: "quadpick"}
	eng, win := newTestEngine(t, app)
	renderAndWait(t, eng, app)

	win.Emit(core.EventMouseButton{Button: core.MouseLeft, Down: true, X: 520, Y: 250})
	assert.Equal(t, 5, app.picker.Selected())
	assert.Equal(t, "quadpick - quad 5", win.Title())

	q, ok := eng.Scene.Lookup(5)
	require.True(t, ok)
	eng.Layers.ForEach(func(l core.Layer) { l.OnUpdate(eng, 1.0/60) })
	assert.Greater(t, q.Scale(), float32(scene.DefaultScale))

	// a second selection restores the first quad before pulsing the new one
	win.Emit(core.EventMouseButton{Button: core.MouseLeft, Down: true, X: 120, Y: 70})
	assert.Equal(t, 2, app.picker.Selected())
	assert.Equal(t, float32(scene.DefaultScale), q.Scale())

	for range 60 {
		eng.Layers.ForEach(func(l core.Layer) { l.OnUpdate(eng, 1.0/60) })
	}
	q2, _ := eng.Scene.Lookup(2)
	assert.Equal(t, float32(scene.DefaultScale), q2.Scale())

	// right button is ignored, a miss clears
	win.Emit(core.EventMouseButton{Button: core.MouseRight, Down: true, X: 320, Y: 180})
	assert.Equal(t, 2, app.picker.Selected())
	win.Emit(core.EventMouseButton{Button: core.MouseLeft, Down: true, X: 5, Y: 5})
	assert.Equal(t, picking.NoSelection, app.picker.Selected())
	assert.Equal(t, "quadpick", win.Title())
}

func TestPickLayerShortcuts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snaps")
	app := &App{layout: scene.DefaultLayout(), outDir: dir, zoom: 2}
	eng, win := newTestEngine(t, app)

	// nothing rendered yet: export fails quietly
	win.Emit(core.EventKey{Key: core.KeyS, Down: true, Mods: core.ModCtrl})
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	renderAndWait(t, eng, app)
	win.Emit(core.EventKey{Key: core.KeyS, Down: true, Mods: core.ModCtrl})
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Len(t, names, 2)
	for _, n := range names {
		assert.True(t, strings.HasSuffix(n, ".png"), n)
	}

	assert.False(t, win.ShouldClose())
	win.Emit(core.EventKey{Key: core.KeyEscape, Down: true})
	assert.True(t, win.ShouldClose())
}

func TestRunHeadlessLayoutFile(t *testing.T) {
	layout, err := scene.LoadLayout(filepath.Join("testdata", "row.yaml"))
	require.NoError(t, err)
	app := &App{layout: layout}

	// 640x360 points at scale 1: world x maps to 320+x
	ids, err := runHeadless(context.Background(), app, testConfig(), headlessOptions{
		Scale:  1,
		Clicks: []click{{20, 180}, {320, 180}, {620, 180}, {320, 20}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, picking.NoSelection}, ids)
}

func TestHeadlessExportIsOptIn(t *testing.T) {
	assert.Equal(t, "", snapshotDir(true, ""))
	assert.Equal(t, "out", snapshotDir(true, "out"))
	assert.Equal(t, defaultSnapshotDir, snapshotDir(false, ""))
	assert.Equal(t, "out", snapshotDir(false, "out"))

	dir := t.TempDir()
	t.Chdir(dir)
	app := &App{layout: scene.DefaultLayout(), outDir: snapshotDir(true, "")}
	var out bytes.Buffer
	_, err := runHeadless(context.Background(), app, testConfig(), headlessOptions{
		Scale:  1,
		Clicks: []click{{320, 180}},
		Out:    &out,
	})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "wrote")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
