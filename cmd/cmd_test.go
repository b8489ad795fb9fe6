package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"example.com/backstage/services/devicetype/config"
	"example.com/backstage/services/devicetype/internal/core"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCommandEnv(t *testing.T) {
	t.Helper()

	var err error
	cfg, err = config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.DeviceTypes.Dir = "../device-types"

	logger = logrus.New()
	logger.SetOutput(io.Discard)
	cfg.Logger = logger
}

func TestRunValidate_PrintsDefinitions(t *testing.T) {
	setupCommandEnv(t)

	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)

	require.NoError(t, runValidate(c, []string{"../device-types/android_sense.xml"}))

	var def core.DeviceTypeDefinition
	require.NoError(t, json.Unmarshal(out.Bytes(), &def))
	assert.Equal(t, "androidsense", def.Name)
	assert.True(t, def.Claimable)
	require.Len(t, def.Features, 3)
	assert.Equal(t, "ring", def.Features[0].Code)
}

func TestRunValidate_ReportsRejectedDocuments(t *testing.T) {
	setupCommandEnv(t)

	bad := filepath.Join(t.TempDir(), "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte(`<DeviceTypeConfiguration name="x"></DeviceTypeConfiguration>`), 0o644))

	c := &cobra.Command{}
	c.SetOut(io.Discard)

	err := runValidate(c, []string{"../device-types/android_sense.xml", bad})
	assert.ErrorContains(t, err, "1 of 2")
}

func TestBuildRuntime_LoadsShippedDeviceTypes(t *testing.T) {
	setupCommandEnv(t)

	rt, err := buildRuntime(true)
	require.NoError(t, err)
	defer rt.Close()

	services := rt.registry.List()
	require.Len(t, services, 2)
	assert.Equal(t, "androidsense", services[0].Type())
	assert.Equal(t, "generic", services[0].Family())
	assert.Equal(t, "virtual_firealarm", services[1].Type())
	assert.Equal(t, "http", services[1].Family())

	svc := services[0]
	added, err := svc.DeviceManager().EnrollDevice(context.Background(), &core.Device{ID: "testdevice1", Type: svc.Type()})
	require.NoError(t, err)
	assert.True(t, added)
}

func TestBuildRuntime_SQLiteStore(t *testing.T) {
	setupCommandEnv(t)
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "devices.db")

	rt, err := buildRuntime(false)
	require.NoError(t, err)
	defer rt.Close()

	svc, err := rt.registry.Lookup("androidsense")
	require.NoError(t, err)

	ctx := context.Background()
	id := core.DeviceIdentifier{ID: "testdevice1", Type: "androidsense"}
	_, err = svc.DeviceManager().EnrollDevice(ctx, &core.Device{ID: id.ID, Type: id.Type})
	require.NoError(t, err)

	enrolled, err := svc.DeviceManager().IsEnrolled(ctx, id)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

func TestRunEnroll_RejectsUnknownOwnership(t *testing.T) {
	setupCommandEnv(t)
	enrollType, enrollID, enrollOwnership = "androidsense", "testdevice1", "leased"
	t.Cleanup(func() { enrollType, enrollID, enrollOwnership = "", "", core.OwnershipBYOD })

	assert.ErrorContains(t, runEnroll(), "invalid --ownership")
}

func TestRunEnroll_AcceptsCOPE(t *testing.T) {
	setupCommandEnv(t)
	enrollType, enrollID, enrollOwnership = "androidsense", "corp1", "cope"
	t.Cleanup(func() { enrollType, enrollID, enrollOwnership = "", "", core.OwnershipBYOD })

	assert.NoError(t, runEnroll())
}
