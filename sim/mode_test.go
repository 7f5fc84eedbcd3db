package sim

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeController_Defaults(t *testing.T) {
	m := NewModeController()

	assert.True(t, m.IsAsyncTracing())
	assert.False(t, m.IsFunctionalityChecking())
	assert.True(t, m.IsProfiling())
	assert.False(t, m.IsDebugDumpping())
	assert.False(t, m.IsDebugPoolInfoDumpping())
	assert.False(t, m.IsTraceDumpping())
	assert.True(t, m.IsConfigOptimization())
	assert.False(t, m.IsGroupOptimization())
}

func TestModeController_NamedAccessors_MatchGeneric(t *testing.T) {
	m := NewModeController()
	setters := map[Flag]func(bool){
		FlagAsyncTracing:          m.SetAsyncTracing,
		FlagFunctionalityChecking: m.SetFunctionalityChecking,
		FlagProfiling:             m.SetProfiling,
		FlagDebugDumpping:         m.SetDebugDumpping,
		FlagDebugPoolInfoDumpping: m.SetDebugPoolInfoDumpping,
		FlagTraceDumpping:         m.SetTraceDumpping,
		FlagConfigOptimization:    m.SetConfigOptimization,
		FlagGroupOptimization:     m.SetGroupOptimization,
	}
	getters := map[Flag]func() bool{
		FlagAsyncTracing:          m.IsAsyncTracing,
		FlagFunctionalityChecking: m.IsFunctionalityChecking,
		FlagProfiling:             m.IsProfiling,
		FlagDebugDumpping:         m.IsDebugDumpping,
		FlagDebugPoolInfoDumpping: m.IsDebugPoolInfoDumpping,
		FlagTraceDumpping:         m.IsTraceDumpping,
		FlagConfigOptimization:    m.IsConfigOptimization,
		FlagGroupOptimization:     m.IsGroupOptimization,
	}
	require.Len(t, setters, len(AllFlags()))

	for _, f := range AllFlags() {
		setters[f](!f.Default())
		assert.Equal(t, !f.Default(), getters[f](), f.String())
		assert.Equal(t, !f.Default(), m.Get(f), f.String())
	}
}

func TestModeController_FlagIndependence_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: after any sequence of writes each flag reads its own last write
	properties.Property("getter reflects most recent setter", prop.ForAll(
		func(writes []int, values []bool) bool {
			m := NewModeController()
			want := make(map[Flag]bool)
			for _, f := range AllFlags() {
				want[f] = f.Default()
			}
			for i, w := range writes {
				f := Flag(w)
				v := values[i%len(values)]
				m.Set(f, v)
				want[f] = v
			}
			for f, v := range want {
				if m.Get(f) != v {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, int(numFlags)-1)),
		gen.SliceOfN(8, gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestModeController_Init_RestoresDefaults(t *testing.T) {
	m := NewModeController()
	for _, f := range AllFlags() {
		m.Set(f, !f.Default())
	}

	m.Init()

	for _, f := range AllFlags() {
		assert.Equal(t, f.Default(), m.Get(f), f.String())
	}
}

func TestModeController_UnknownFlag_Ignored(t *testing.T) {
	m := NewModeController()
	before := m.Snapshot()

	m.Set(Flag(-1), true)
	m.Set(numFlags, true)

	assert.False(t, m.Get(Flag(-1)))
	assert.False(t, m.Get(numFlags))
	assert.Equal(t, before, m.Snapshot())
}

func TestParseFlag_RoundTripsNames(t *testing.T) {
	for _, f := range AllFlags() {
		got, err := ParseFlag(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFlag("debug_dumping")
	assert.ErrorContains(t, err, `unknown mode flag "debug_dumping"`)
}

func TestModeController_Snapshot_AllNames(t *testing.T) {
	snap := NewModeController().Snapshot()
	assert.Equal(t, map[string]bool{
		"async_tracing":           true,
		"functionality_checking":  false,
		"profiling":               true,
		"debug_dumpping":          false,
		"debug_poolinfo_dumpping": false,
		"trace_dumpping":          false,
		"config_optimization":     true,
		"group_optimization":      false,
	}, snap)
}
