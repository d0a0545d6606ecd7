package inttest

import (
	"context"
	"crypto/tls"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ucsm "github.com/griddynamics/goucsm"
	ucsmhttp "github.com/griddynamics/goucsm/transport/http"
)

// simulator reports whether the appliance is a UCS platform emulator.  Tests
// that change the configuration only run against one.
func simulator() bool {
	ok, _ := strconv.ParseBool(os.Getenv("UCSM_DUT_SIMULATOR"))
	return ok
}

func dial(t *testing.T, d dut) *ucsmhttp.Transport {
	t.Helper()

	var config *tls.Config
	if d.secure {
		config = &tls.Config{InsecureSkipVerify: true}
	}
	tr, err := ucsmhttp.Dial(d.host, d.port, d.secure, config)
	require.NoError(t, err)

	// capture the wire traffic
	inCap := newLogWriter("<--", t)
	outCap := newLogWriter("-->", t)
	t.Cleanup(func() {
		inCap.Close()
		outCap.Close()
		tr.Close()
	})
	tr.DebugCapture(inCap, outCap)

	return tr
}

// login returns a logged in session that is logged out when the test ends.
func login(t *testing.T) (context.Context, *ucsm.Session) {
	t.Helper()

	d := dutFromEnv(t)
	s := ucsm.NewSession(dial(t, d))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	require.NoError(t, s.Login(ctx, d.user, d.password))
	t.Cleanup(func() {
		if _, err := s.Logout(context.Background()); err != nil {
			t.Errorf("logout failed: %v", err)
		}
	})
	return ctx, s
}

func TestLoginLogout(t *testing.T) {
	ctx, s := login(t)

	assert.NotEmpty(t, s.Cookie())
	assert.NotEmpty(t, s.Version())
	assert.Greater(t, s.RefreshPeriod(), time.Duration(0))
	t.Logf("logged in to UCS Manager %s, privileges %v", s.Version(), s.Privileges())

	old := s.Cookie()
	require.NoError(t, s.Refresh(ctx))
	t.Logf("cookie %s refreshed to %s", old, s.Cookie())
}

func TestWrongPassword(t *testing.T) {
	d := dutFromEnv(t)
	if simulator() {
		t.Skip("the emulator accepts any password")
	}

	s := ucsm.NewSession(dial(t, d))
	err := s.Login(context.Background(), d.user, "this is wrong password")

	var re *ucsm.ResponseError
	assert.ErrorAs(t, err, &re)
	assert.False(t, s.Authenticated())
}

func TestResolve(t *testing.T) {
	ctx, s := login(t)

	users, err := s.ResolveChildren(ctx, "aaaUser", "sys/user-ext", false, nil)
	require.NoError(t, err)
	for _, u := range users {
		assert.Equal(t, "aaaUser", u.ClassName)
	}

	eps, err := s.ResolveClass(ctx, "pkiEp", nil, false)
	require.NoError(t, err)
	assert.NotEmpty(t, eps)

	none, err := s.ResolveClass(ctx, "pkiEp", ucsm.Attr("pkiEp", "intId").Lt(0), false)
	require.NoError(t, err)
	assert.Empty(t, none)

	objs, err := s.ResolveClasses(ctx, []string{"computeItem", "equipmentChassis"}, false)
	require.NoError(t, err)
	assert.NotEmpty(t, objs)

	sys, err := s.ResolveDn(ctx, "sys", false)
	require.NoError(t, err)
	require.NotNil(t, sys)
	assert.Equal(t, "topSystem", sys.ClassName)

	missing, err := s.ResolveDn(ctx, "qewr", false)
	require.NoError(t, err)
	assert.Nil(t, missing)

	resolved, unresolved, err := s.ResolveDns(ctx, []string{"sys", "mac", "ololo"}, false)
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
	assert.Equal(t, []string{"ololo"}, unresolved)

	parent, err := s.ResolveParent(ctx, "sys/user-ext", false)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, "sys", parent.DN())

	dns, err := s.FindDnsByClassID(ctx, "macpoolUniverse", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"mac"}, dns)

	_, err = s.FindDnsByClassID(ctx, "notrealclass", nil)
	assert.Error(t, err)
}

func TestConfigure(t *testing.T) {
	if !simulator() {
		t.Skip("UCSM_DUT_SIMULATOR not set, not changing the configuration")
	}
	ctx, s := login(t)

	ldap := ucsm.NewManagedObject("aaaLdapEp")
	timeout := strconv.Itoa(rand.Intn(60))
	ldap.Set("timeout", timeout)

	mo, err := s.ConfMo(ctx, ldap, "sys/ldap-ext", false)
	require.NoError(t, err)
	assert.Equal(t, timeout, mo.Attributes["timeout"])

	res, err := s.ConfMos(ctx, map[string]*ucsm.ManagedObject{"sys/ldap-ext": ldap})
	require.NoError(t, err)
	assert.Equal(t, timeout, res["sys/ldap-ext"].Attributes["timeout"])

	group, err := s.ConfMoGroup(ctx, []string{"sys"}, ldap, false)
	require.NoError(t, err)
	require.NotEmpty(t, group)
	assert.Equal(t, timeout, group[0].Attributes["timeout"])

	user := ucsm.NewManagedObject("aaaUser")
	user.Set("status", "created")
	user.Set("dn", "sys/user-ext/user-testuser")

	impact, err := s.EstimateImpact(ctx, map[string]*ucsm.ManagedObject{
		"sys/user-ext/user-testuser": user,
	})
	require.NoError(t, err)
	assert.Empty(t, impact.Ackables)
	assert.Empty(t, impact.Affected)

	admin := ucsm.NewManagedObject("aaaUser")
	admin.Set("status", "deleted")
	admin.Set("dn", "sys/user-ext/user-admin")

	_, err = s.EstimateImpact(ctx, map[string]*ucsm.ManagedObject{
		"sys/user-ext/user-admin": admin,
	})
	var re *ucsm.ResponseError
	assert.ErrorAs(t, err, &re)
}
