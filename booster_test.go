package booster

import (
	"errors"
	"io"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Konsultn-Engineering/booster/cache"
	"github.com/Konsultn-Engineering/booster/config"
	"github.com/Konsultn-Engineering/booster/registry"
	"github.com/Konsultn-Engineering/booster/thunk"
)

// =========================================================================
// Test Data Structures
// =========================================================================

type Hoge struct {
	MyProperty int
}

type FancyHoge struct {
	*Hoge
	Color string
}

type Sample struct {
	MyProperty *Hoge
	Name       string
	Count      int
}

func newSample() *Sample                       { return &Sample{} }
func newSampleHoge(h *Hoge) *Sample            { return &Sample{MyProperty: h} }
func newSampleNamed(s string) *Sample          { return &Sample{Name: s} }
func newSampleCounted(s string, i int) *Sample { return &Sample{Name: s, Count: i} }

type Empty struct{}

func newEmpty() *Empty { return &Empty{} }

type Account struct {
	Owner   string
	Balance int64
}

var errNegative = errors.New("negative balance")

func openAccount(owner string, balance int64) (*Account, error) {
	if balance < 0 {
		return nil, errNegative
	}
	return &Account{Owner: owner, Balance: balance}, nil
}

var (
	tSample  = reflect.TypeFor[*Sample]()
	tEmpty   = reflect.TypeFor[*Empty]()
	tAccount = reflect.TypeFor[*Account]()
)

func newActivator(t *testing.T, options ...Option) *Activator {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Declare(tSample,
		newSample,
		thunk.Typed1(newSampleHoge),
		newSampleNamed,
		thunk.Typed2(newSampleCounted),
	))
	require.NoError(t, reg.Declare(tEmpty, newEmpty))
	require.NoError(t, reg.Declare(tAccount, openAccount))
	return New(append([]Option{WithRegistry(reg)}, options...)...)
}

// =========================================================================
// CreateInstance Tests
// =========================================================================

func TestCreateInstance_FieldsFromArguments(t *testing.T) {
	a := newActivator(t)
	hoge := &Hoge{MyProperty: 3}

	tests := []struct {
		name     string
		args     []any
		expected *Sample
	}{
		{"NoArgs", nil, &Sample{}},
		{"Hoge", []any{hoge}, &Sample{MyProperty: hoge}},
		{"DerivedHoge", []any{&FancyHoge{Hoge: hoge}}, &Sample{MyProperty: hoge}},
		{"NilHoge", []any{nil}, &Sample{}},
		{"Named", []any{"x"}, &Sample{Name: "x"}},
		{"NamedCounted", []any{"x", 1}, &Sample{Name: "x", Count: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := a.CreateInstance(tSample, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obj)
		})
	}
}

func TestCreateInstance_ZeroArgumentType(t *testing.T) {
	a := newActivator(t)

	obj, err := a.CreateInstance(tEmpty)
	require.NoError(t, err)
	assert.IsType(t, &Empty{}, obj)

	_, err = a.CreateInstance(tEmpty, 1)
	require.ErrorIs(t, err, ErrUnresolvedOverload)

	var ue *UnresolvedOverloadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, tEmpty, ue.Type)
	assert.Equal(t, "(int)", ue.ArgTypes)
	assert.Equal(t, 1, ue.Declared)
	assert.Contains(t, err.Error(), "1 constructor declared")
}

func TestCreateInstance_NilAgainstValueType(t *testing.T) {
	a := newActivator(t)

	_, err := a.CreateInstance(tSample, "x", nil)
	assert.ErrorIs(t, err, ErrUnresolvedOverload)

	_, err = a.CreateInstance(tAccount, "ann", nil)
	assert.ErrorIs(t, err, ErrUnresolvedOverload)
}

func TestCreateInstance_NoNumericWidening(t *testing.T) {
	a := newActivator(t)

	_, err := a.CreateInstance(tAccount, "ann", 10)
	assert.ErrorIs(t, err, ErrUnresolvedOverload, "int is not widened to int64")

	obj, err := a.CreateInstance(tAccount, "ann", int64(10))
	require.NoError(t, err)
	assert.Equal(t, &Account{Owner: "ann", Balance: 10}, obj)
}

func TestCreateInstance_ConstructorError(t *testing.T) {
	a := newActivator(t)
	_, err := a.CreateInstance(tAccount, "ann", int64(-1))
	assert.ErrorIs(t, err, errNegative)
	assert.NotErrorIs(t, err, ErrUnresolvedOverload)
}

func TestCreateInstance_InterfaceType(t *testing.T) {
	a := newActivator(t)
	_, err := a.CreateInstance(reflect.TypeFor[io.Reader]())
	require.ErrorIs(t, err, ErrUnresolvedOverload)
	assert.Contains(t, err.Error(), "0 constructors declared")
}

func TestCreateInstance_NilType(t *testing.T) {
	a := newActivator(t)
	_, err := a.CreateInstance(nil)
	assert.ErrorIs(t, err, ErrUnresolvedOverload)
}

func TestCreateInstance_ImplicitConstructors(t *testing.T) {
	type plain struct{ N int }
	tPlain := reflect.TypeFor[*plain]()

	obj, err := newActivator(t).CreateInstance(tPlain)
	require.NoError(t, err)
	assert.Equal(t, &plain{}, obj)

	_, err = newActivator(t, WithImplicitConstructors(false)).CreateInstance(tPlain)
	assert.ErrorIs(t, err, ErrUnresolvedOverload)
}

// =========================================================================
// CreateFactory Tests
// =========================================================================

func TestCreateFactory_Reuse(t *testing.T) {
	a := newActivator(t)

	factory, err := a.CreateFactory(tSample, "aaa", 9)
	require.NoError(t, err)
	assert.Equal(t, "(string, int)", factory.Signature().String())

	resolutions := a.Stats().Memo
	for i := 0; i < 100; i++ {
		obj, err := factory.Invoke("n", i)
		require.NoError(t, err)
		assert.Equal(t, &Sample{Name: "n", Count: i}, obj)
	}
	assert.Equal(t, resolutions, a.Stats().Memo, "factory calls never resolve again")
}

func TestCreateFactory_Unresolved(t *testing.T) {
	a := newActivator(t)
	f, err := a.CreateFactory(tSample, 1.5)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, ErrUnresolvedOverload)
}

func TestCreateFactory_LateConversionFailure(t *testing.T) {
	a := newActivator(t)
	factory, err := a.CreateFactory(tSample, &Hoge{})
	require.NoError(t, err)

	_, err = factory.Invoke("not a hoge")
	assert.ErrorIs(t, err, ErrInvalidArgumentConversion)

	var nilFancy *FancyHoge
	_, err = factory.Invoke(nilFancy)
	assert.ErrorIs(t, err, ErrInvalidArgumentConversion)

	_, err = factory.Invoke()
	assert.ErrorIs(t, err, thunk.ErrArity)
}

// =========================================================================
// Cache Build Tests
// =========================================================================

func TestConcurrentFirstAccess_BuildsOnce(t *testing.T) {
	var builds atomic.Int64
	a := newActivator(t, WithBuildHook(func(e *cache.Entry) {
		if e.Type == tSample {
			builds.Add(1)
		}
	}))

	const callers = 100
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			obj, err := a.CreateInstance(tSample, "x", i)
			if assert.NoError(t, err) {
				assert.Equal(t, i, obj.(*Sample).Count)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), builds.Load())
	assert.Equal(t, int64(1), a.Stats().Builds)
}

func TestLateDeclarationIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	a := newActivator(t, WithLogger(zap.New(core)))

	require.Len(t, a.Overloads(tEmpty), 1)
	require.NoError(t, a.Declare(tEmpty, func(n int) *Empty { return &Empty{} }))

	assert.Len(t, a.Overloads(tEmpty), 1)
	_, err := a.CreateInstance(tEmpty, 1)
	assert.ErrorIs(t, err, ErrUnresolvedOverload)
	assert.Equal(t, 1, logs.FilterMessageSnippet("ignored").Len())
}

func TestDefaultRegistryActivatorsAreCollected(t *testing.T) {
	const activators = 200
	var freed atomic.Int64
	tHoge := reflect.TypeFor[*Hoge]()

	for i := 0; i < activators; i++ {
		a := New()
		_, err := a.CreateInstance(tHoge)
		require.NoError(t, err)
		runtime.SetFinalizer(a.types, func(*cache.TypeCache) { freed.Add(1) })
	}

	assert.Eventually(t, func() bool {
		runtime.GC()
		return freed.Load() == activators
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMemoDisabled(t *testing.T) {
	a := newActivator(t, WithMemoSize(0))
	for i := 0; i < 3; i++ {
		obj, err := a.CreateInstance(tSample, "x")
		require.NoError(t, err)
		assert.Equal(t, &Sample{Name: "x"}, obj)
	}
	assert.Equal(t, cache.MemoStats{}, a.Stats().Memo)
}

func TestWithConfig_InvalidIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	a := newActivator(t,
		WithLogger(zap.New(core)),
		WithConfig(&config.Config{MemoSize: 0, LogLevel: "loud"}),
	)

	entries := logs.FilterMessage("invalid configuration ignored").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "loud")

	_, err := a.CreateInstance(tSample, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Stats().Memo.Misses, "default memo kept")
}

func TestWithConfig(t *testing.T) {
	cfg := &config.Config{MemoSize: 0, ImplicitConstructors: false}
	a := newActivator(t, WithConfig(cfg))

	_, err := a.CreateInstance(reflect.TypeFor[*Hoge]())
	assert.ErrorIs(t, err, ErrUnresolvedOverload)

	_, err = a.CreateInstance(tSample, "x")
	require.NoError(t, err)
	assert.Equal(t, cache.MemoStats{}, a.Stats().Memo)
}

// =========================================================================
// Generic API Tests
// =========================================================================

func TestCreate(t *testing.T) {
	a := newActivator(t)

	s, err := Create[*Sample](a, "x", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count)

	_, err = Create[*Sample](a, true)
	assert.ErrorIs(t, err, ErrUnresolvedOverload)

	assert.Panics(t, func() { MustCreate[*Sample](a, true) })
	assert.Equal(t, "y", MustCreate[*Sample](a, "y").Name)
}

func TestNewFactory(t *testing.T) {
	a := newActivator(t)

	newAccount, err := NewFactory[*Account](a, "", int64(0))
	require.NoError(t, err)

	acc, err := newAccount("bob", int64(5))
	require.NoError(t, err)
	assert.Equal(t, &Account{Owner: "bob", Balance: 5}, acc)

	_, err = newAccount("bob", int64(-5))
	assert.ErrorIs(t, err, errNegative)

	_, err = NewFactory[*Account](a)
	assert.ErrorIs(t, err, ErrUnresolvedOverload)
}

// =========================================================================
// Default Activator Tests
// =========================================================================

type Gadget struct {
	Label string
}

func TestDefaultActivator(t *testing.T) {
	tGadget := reflect.TypeFor[*Gadget]()
	require.NoError(t, Declare(tGadget, func(label string) *Gadget { return &Gadget{Label: label} }))

	obj, err := CreateInstance(tGadget, "g")
	require.NoError(t, err)
	assert.Equal(t, &Gadget{Label: "g"}, obj)

	f, err := CreateFactory(tGadget, "")
	require.NoError(t, err)
	obj, err = f.Invoke("h")
	require.NoError(t, err)
	assert.Equal(t, "h", obj.(*Gadget).Label)

	g, err := Create[*Gadget](nil, "i")
	require.NoError(t, err)
	assert.Equal(t, "i", g.Label)

	assert.Same(t, defaultActivator, Default())
	assert.Same(t, registry.Default(), Default().Registry())
}

func TestUnresolvedOverloadError_Message(t *testing.T) {
	err := newUnresolvedOverloadError(tSample, []any{"x", nil, true}, 4)
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "unresolved overload: "))
	assert.Contains(t, msg, "*booster.Sample accepts (string, nil, bool)")
	assert.Contains(t, msg, "4 constructors declared")
}
