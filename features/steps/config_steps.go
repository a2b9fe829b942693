//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-to-audio/cmd"
	"video-to-audio/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	config     *config.Config
	output     *bytes.Buffer
	err        error
}

var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config.yaml")
		testCtx.config = nil
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedConfigContext = &configContext{}
		return c, nil
	})

	ctx.Step(`^a default config file exists$`, testCtx.aDefaultConfigFileExists)
	ctx.Step(`^I run config set "([^"]*)" to "([^"]*)"$`, testCtx.iRunConfigSet)
	ctx.Step(`^I run config get "([^"]*)"$`, testCtx.iRunConfigGet)
	ctx.Step(`^I run config show$`, testCtx.iRunConfigShow)
	ctx.Step(`^I run config ext add "([^"]*)"$`, testCtx.iRunConfigExtAdd)
	ctx.Step(`^I run config ext remove "([^"]*)"$`, testCtx.iRunConfigExtRemove)
	ctx.Step(`^I run config ext list$`, testCtx.iRunConfigExtList)
	ctx.Step(`^the saved config should have "([^"]*)" set to "([^"]*)"$`, testCtx.theSavedConfigShouldHaveSetTo)
	ctx.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	ctx.Step(`^the command should fail with "([^"]*)"$`, testCtx.theCommandShouldFailWith)
	ctx.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
}

func (c *configContext) aDefaultConfigFileExists() error {
	c.config = config.Default()
	return config.Save(c.config, c.configPath)
}

func (c *configContext) iRunConfigSet(key, value string) error {
	c.err = cmd.RunConfigSetWithDependencies(c.config, c.configPath, key, value, c.output)
	return nil
}

func (c *configContext) iRunConfigGet(key string) error {
	c.err = cmd.RunConfigGetWithDependencies(c.config, c.configPath, key, c.output)
	return nil
}

func (c *configContext) iRunConfigShow() error {
	c.err = cmd.RunConfigShowWithDependencies(c.config, c.output)
	return nil
}

func (c *configContext) iRunConfigExtAdd(ext string) error {
	c.err = cmd.RunConfigExtAddWithDependencies(c.config, c.configPath, ext, c.output)
	return nil
}

func (c *configContext) iRunConfigExtRemove(ext string) error {
	c.err = cmd.RunConfigExtRemoveWithDependencies(c.config, c.configPath, ext, c.output)
	return nil
}

func (c *configContext) iRunConfigExtList() error {
	c.err = cmd.RunConfigExtListWithDependencies(c.config, c.configPath, c.output)
	return nil
}

func (c *configContext) theSavedConfigShouldHaveSetTo(key, want string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	got, err := config.NewConfigManager(cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%s = %q, want %q", key, got, want)
	}
	return nil
}

func (c *configContext) theCommandShouldSucceed() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got error: %v", c.err)
	}
	return nil
}

func (c *configContext) theCommandShouldFailWith(msg string) error {
	if c.err == nil {
		return fmt.Errorf("expected error containing %q, but command succeeded", msg)
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, c.err.Error())
	}
	return nil
}

func (c *configContext) theOutputShouldContain(s string) error {
	if !strings.Contains(c.output.String(), s) {
		return fmt.Errorf("output does not contain %q:\n%s", s, c.output.String())
	}
	return nil
}
