package main

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func runApp(args ...string) error {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	app.Action = func(*cli.Context) error { return nil }
	return app.Run(append([]string{"drivesync"}, args...))
}

func TestRejectsUnknownProvider(t *testing.T) {
	err := runApp("--log-level", "info", "--provider", "dropbox")
	assert.EqualError(t, err, "unsupported provider: dropbox (choose one of gdrive, gcs, s3)")
}

func TestAcceptsKnownProviders(t *testing.T) {
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })
	for _, name := range []string{"gdrive", "gcs", "s3"} {
		assert.NoError(t, runApp("--log-level", "warn", "--provider", name), name)
	}
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestRejectsInvalidLogLevel(t *testing.T) {
	err := runApp("--log-level", "loud", "--provider", "gdrive")
	assert.ErrorContains(t, err, "not a valid logrus Level")
}
