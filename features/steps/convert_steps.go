//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"video-to-audio/application/transcode"
	"video-to-audio/cmd"
	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/filesystem"
	"video-to-audio/infrastructure/native"
	"video-to-audio/infrastructure/wav"

	"github.com/cucumber/godog"
)

// fakeEngine is an in-memory codec delegate that copies a canned artifact
// to the requested output name
type fakeEngine struct {
	files    map[string][]byte
	output   []byte
	loadErr  error
	execErr  error
	handler  func(media.ProgressEvent)
	loads    int
	lastArgs []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{files: make(map[string][]byte)}
}

func (f *fakeEngine) Load(ctx context.Context) error {
	f.loads++
	return f.loadErr
}

func (f *fakeEngine) WriteFile(ctx context.Context, name string, data []byte) error {
	f.files[name] = data
	return nil
}

func (f *fakeEngine) Exec(ctx context.Context, args []string) error {
	f.lastArgs = args
	if f.handler != nil {
		f.handler(media.ProgressEvent{Progress: 0.5})
	}
	if f.execErr != nil {
		return f.execErr
	}
	f.files[args[len(args)-1]] = f.output
	return nil
}

func (f *fakeEngine) ReadFile(ctx context.Context, name string) ([]byte, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", name)
	}
	return data, nil
}

func (f *fakeEngine) DeleteFile(ctx context.Context, name string) error {
	delete(f.files, name)
	return nil
}

func (f *fakeEngine) OnProgress(handler func(media.ProgressEvent)) {
	f.handler = handler
}

type convertContext struct {
	tempDir   string
	inputDir  string
	outputDir string
	engine    *fakeEngine
	limits    transcode.Limits
	route     transcode.Route
	overwrite bool
	states    []media.ConversionState
	output    *bytes.Buffer
	err       error
}

var SharedConvertContext = &convertContext{}

func InitializeConvertScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConvertContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "convert-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.inputDir = filepath.Join(tempDir, "in")
		testCtx.outputDir = filepath.Join(tempDir, "out")
		for _, dir := range []string{testCtx.inputDir, testCtx.outputDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return c, err
			}
		}
		testCtx.engine = newFakeEngine()
		testCtx.limits = transcode.DefaultLimits()
		testCtx.route = transcode.RoutePCM
		testCtx.overwrite = false
		testCtx.states = nil
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedConvertContext = &convertContext{}
		return c, nil
	})

	// Inputs
	ctx.Step(`^a WAV input file "([^"]*)" with (\d+) second of stereo tone$`, testCtx.aWAVInputFileWithTone)
	ctx.Step(`^an input file "([^"]*)" containing "([^"]*)"$`, testCtx.anInputFileContaining)
	ctx.Step(`^an output file "([^"]*)" already exists$`, testCtx.anOutputFileAlreadyExists)

	// Engine and limits
	ctx.Step(`^the codec engine produces "([^"]*)"$`, testCtx.theCodecEngineProduces)
	ctx.Step(`^the codec engine fails to load with "([^"]*)"$`, testCtx.theCodecEngineFailsToLoad)
	ctx.Step(`^the codec engine fails to run with "([^"]*)"$`, testCtx.theCodecEngineFailsToRun)
	ctx.Step(`^the PCM size limit is (\d+) bytes$`, testCtx.thePCMSizeLimitIs)
	ctx.Step(`^only "([^"]*)" files are accepted$`, testCtx.onlyFilesAreAccepted)
	ctx.Step(`^WAV output is routed to the codec engine$`, testCtx.wavOutputIsRoutedToTheCodecEngine)
	ctx.Step(`^overwrite is enabled$`, testCtx.overwriteIsEnabled)

	// Actions
	ctx.Step(`^I convert "([^"]*)" to "([^"]*)"$`, testCtx.iConvertTo)

	// Assertions
	ctx.Step(`^the conversion should succeed$`, testCtx.theConversionShouldSucceed)
	ctx.Step(`^the conversion should fail with "([^"]*)"$`, testCtx.theConversionShouldFailWith)
	ctx.Step(`^the output file "([^"]*)" should start with "([^"]*)"$`, testCtx.theOutputFileShouldStartWith)
	ctx.Step(`^the output file "([^"]*)" should not exist$`, testCtx.theOutputFileShouldNotExist)
	ctx.Step(`^the convert output should contain "([^"]*)"$`, testCtx.theConvertOutputShouldContain)
	ctx.Step(`^progress should have reached (\d+)$`, testCtx.progressShouldHaveReached)
	ctx.Step(`^progress should never decrease$`, testCtx.progressShouldNeverDecrease)
	ctx.Step(`^the final state should report the error "([^"]*)"$`, testCtx.theFinalStateShouldReportTheError)
	ctx.Step(`^the codec engine should have been loaded (\d+) times?$`, testCtx.theCodecEngineShouldHaveBeenLoaded)
	ctx.Step(`^the codec engine workspace should be empty$`, testCtx.theCodecEngineWorkspaceShouldBeEmpty)
}

// --- Inputs ---

func (c *convertContext) aWAVInputFileWithTone(name string, seconds int) error {
	const rate = 44100
	buf := media.NewPCMBuffer(rate, 2, rate*seconds)
	for i := range buf.Channels[0] {
		v := float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/rate))
		buf.Channels[0][i] = v
		buf.Channels[1][i] = -v
	}

	data, err := wav.NewEncoder().Encode(context.Background(), buf)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.inputDir, name), data, 0644)
}

func (c *convertContext) anInputFileContaining(name, content string) error {
	return os.WriteFile(filepath.Join(c.inputDir, name), []byte(content), 0644)
}

func (c *convertContext) anOutputFileAlreadyExists(name string) error {
	return os.WriteFile(filepath.Join(c.outputDir, name), []byte("previous"), 0644)
}

// --- Engine and limits ---

func (c *convertContext) theCodecEngineProduces(content string) error {
	c.engine.output = []byte(content)
	return nil
}

func (c *convertContext) theCodecEngineFailsToLoad(msg string) error {
	c.engine.loadErr = errors.New(msg)
	return nil
}

func (c *convertContext) theCodecEngineFailsToRun(msg string) error {
	c.engine.execErr = errors.New(msg)
	return nil
}

func (c *convertContext) thePCMSizeLimitIs(n int) error {
	c.limits.PCMMaxBytes = int64(n)
	return nil
}

func (c *convertContext) onlyFilesAreAccepted(ext string) error {
	c.limits.AcceptedExtensions = []string{ext}
	return nil
}

func (c *convertContext) wavOutputIsRoutedToTheCodecEngine() error {
	c.route = transcode.RouteDelegate
	return nil
}

func (c *convertContext) overwriteIsEnabled() error {
	c.overwrite = true
	return nil
}

// --- Actions ---

func (c *convertContext) iConvertTo(name, format string) error {
	deps := cmd.ConvertDependencies{
		NewConverter: func(listener transcode.StateListener) (cmd.Converter, error) {
			record := func(st media.ConversionState) {
				c.states = append(c.states, st)
				listener(st)
			}
			return transcode.NewService(
				transcode.WithPCMDecoder(transcode.NewPCMDecoder(native.NewFactory(),
					transcode.WithStrategies(transcode.DefaultStrategies(nil)))),
				transcode.WithWAVEncoder(wav.NewEncoder()),
				transcode.WithDelegate(c.engine),
				transcode.WithLimits(c.limits),
				transcode.WithRoute(c.route),
				transcode.WithStateListener(record),
			), nil
		},
		Files: filesystem.NewChecker(),
	}

	c.err = cmd.RunConvertWithDependencies(context.Background(), deps, cmd.ConvertOptions{
		Input:     filepath.Join(c.inputDir, name),
		Format:    format,
		OutputDir: c.outputDir,
		Overwrite: c.overwrite,
	}, c.output)
	return nil
}

// --- Assertions ---

func (c *convertContext) theConversionShouldSucceed() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got error: %v", c.err)
	}
	return nil
}

func (c *convertContext) theConversionShouldFailWith(msg string) error {
	if c.err == nil {
		return fmt.Errorf("expected error containing %q, but conversion succeeded", msg)
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, c.err.Error())
	}
	return nil
}

func (c *convertContext) theOutputFileShouldStartWith(name, prefix string) error {
	data, err := os.ReadFile(filepath.Join(c.outputDir, name))
	if err != nil {
		return fmt.Errorf("output file not readable: %w", err)
	}
	if !bytes.HasPrefix(data, []byte(prefix)) {
		n := min(len(data), len(prefix))
		return fmt.Errorf("output starts with %q, want %q", data[:n], prefix)
	}
	return nil
}

func (c *convertContext) theOutputFileShouldNotExist(name string) error {
	if _, err := os.Stat(filepath.Join(c.outputDir, name)); !os.IsNotExist(err) {
		return fmt.Errorf("output file %s should not exist", name)
	}
	return nil
}

func (c *convertContext) theConvertOutputShouldContain(s string) error {
	if !strings.Contains(c.output.String(), s) {
		return fmt.Errorf("output does not contain %q:\n%s", s, c.output.String())
	}
	return nil
}

func (c *convertContext) progressShouldHaveReached(p int) error {
	for _, st := range c.states {
		if st.Progress == p {
			return nil
		}
	}
	return fmt.Errorf("progress never reached %d: %v", p, c.progressValues())
}

func (c *convertContext) progressShouldNeverDecrease() error {
	values := c.progressValues()
	// The first update resets progress to 0 for the new conversion.
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return fmt.Errorf("progress decreased: %v", values)
		}
	}
	return nil
}

func (c *convertContext) progressValues() []int {
	values := make([]int, 0, len(c.states))
	for _, st := range c.states {
		values = append(values, st.Progress)
	}
	return values
}

func (c *convertContext) theFinalStateShouldReportTheError(msg string) error {
	if len(c.states) == 0 {
		return fmt.Errorf("no state updates were published")
	}
	final := c.states[len(c.states)-1]
	if final.IsConverting {
		return fmt.Errorf("final state still converting: %+v", final)
	}
	if !strings.Contains(final.Error, msg) {
		return fmt.Errorf("final state error = %q, want %q", final.Error, msg)
	}
	return nil
}

func (c *convertContext) theCodecEngineShouldHaveBeenLoaded(n int) error {
	if c.engine.loads != n {
		return fmt.Errorf("codec engine loaded %d times, want %d", c.engine.loads, n)
	}
	return nil
}

func (c *convertContext) theCodecEngineWorkspaceShouldBeEmpty() error {
	if len(c.engine.files) != 0 {
		names := make([]string, 0, len(c.engine.files))
		for name := range c.engine.files {
			names = append(names, name)
		}
		return fmt.Errorf("workspace still holds %v", names)
	}
	return nil
}
