package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEntityIDByStr_RoundTrip(t *testing.T) {
	packed, area, set, fn, inst, err := GetEntityIDByStr("1.0.10.1")
	require.NoError(t, err)
	assert.Equal(t, 1, area)
	assert.Equal(t, 0, set)
	assert.Equal(t, 10, fn)
	assert.Equal(t, 1, inst)

	assert.Equal(t, uint32(area), GetAreaIDByEntityID(packed))
	assert.Equal(t, uint32(set), GetSetIDByEntityID(packed))
	assert.Equal(t, uint32(fn), GetFuncIDByEntityID(packed))
	assert.Equal(t, uint32(inst), GetInstIDByEntityID(packed))
	assert.Equal(t, "1.0.10.1", GetStringByEntityID(packed))
}

func TestGetEntityIDByStr_RejectsMalformedInput(t *testing.T) {
	_, _, _, _, _, err := GetEntityIDByStr("not-an-entity-id")
	assert.Error(t, err)

	_, _, _, _, _, err = GetEntityIDByStr("0.0.10.1")
	assert.Error(t, err, "AreaID must be positive")

	_, _, _, _, _, err = GetEntityIDByStr("1.0.0.1")
	assert.Error(t, err, "FuncID must be positive")
}

func TestSetupServerAddr_PopulatesGetters(t *testing.T) {
	err := SetupServerAddr("2.1.20.3")
	require.NoError(t, err)

	assert.Equal(t, "2.1.20.3", GetEntityIDStr())
	assert.Equal(t, 2, GetAreaID())
	assert.Equal(t, 1, GetSetID())
	assert.Equal(t, 20, GetFuncID())
	assert.Equal(t, 3, GetInsID())
}

func TestSetupFrontendServerAddr_PopulatesFrontendEntityID(t *testing.T) {
	err := SetupFrontendServerAddr("3.0.1.1")
	require.NoError(t, err)

	assert.NotZero(t, GetFrontendEntityID())
	assert.Equal(t, "3.0.1.1", GetStringByEntityID(GetFrontendEntityID()))
}

func TestSvrVersion_FallsBackToBuildTime(t *testing.T) {
	_buildTimeStr = "2024-01-02 03:04:05"
	_buildTime = 0
	assert.NotZero(t, GetSvrVersion())
}
