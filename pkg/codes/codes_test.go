package codes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpccodes "google.golang.org/grpc/codes"
)

func TestRegistry_CodesAreUnique(t *testing.T) {
	seenCode := map[string]bool{}
	seenName := map[string]bool{}
	for _, c := range All() {
		require.False(t, seenCode[c.Code], "duplicate code %s", c.Code)
		require.False(t, seenName[c.Name], "duplicate name %s", c.Name)
		seenCode[c.Code] = true
		seenName[c.Name] = true
	}
	require.Len(t, seenCode, len(table))
}

func TestLookup(t *testing.T) {
	for _, c := range All() {
		got, ok := Lookup(c.Code)
		require.True(t, ok, c.Code)
		require.Equal(t, c, got)

		again, _ := Lookup(c.Code)
		require.Equal(t, got, again)
	}

	_, ok := Lookup("ERR_9999")
	require.False(t, ok)
	_, ok = Lookup("")
	require.False(t, ok)
}

func TestLookupName(t *testing.T) {
	got, ok := LookupName("duplicate_entry")
	require.True(t, ok)
	require.Equal(t, DuplicateEntry, got)

	_, ok = LookupName("NOPE")
	require.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	list := All()
	list[0].Message = "mutated"

	got, ok := Lookup(list[0].Code)
	require.True(t, ok)
	require.NotEqual(t, "mutated", got.Message)
}

func TestAll_SortedByCode(t *testing.T) {
	list := All()
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Code, list[i].Code)
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want Band
	}{
		{InternalServerError, BandGeneral},
		{ValidationError, BandValidation},
		{DuplicateEntry, BandBusiness},
		{DatabaseError, BandData},
		{TokenExpired, BandAuth},
		{ExternalServiceTimeout, BandExternal},
		{ErrorCode{Code: "X"}, BandUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code.Code, func(t *testing.T) {
			require.Equal(t, tt.want, tt.code.Band())
		})
	}
}

func TestParseBand(t *testing.T) {
	b, ok := ParseBand("auth")
	require.True(t, ok)
	require.Equal(t, BandAuth, b)

	b, ok = ParseBand("6")
	require.True(t, ok)
	require.Equal(t, BandExternal, b)

	_, ok = ParseBand("7")
	require.False(t, ok)
}

func TestByBand(t *testing.T) {
	ext := ByBand(BandExternal)
	require.Equal(t, []ErrorCode{ExternalServiceError, ExternalServiceTimeout, ExternalServiceUnavailable}, ext)
}

func TestIsTransient(t *testing.T) {
	require.True(t, ExternalServiceError.IsTransient())
	require.True(t, TooManyRequests.IsTransient())
	require.True(t, DatabaseError.IsTransient())
	require.False(t, ValidationError.IsTransient())
	require.False(t, BusinessError.IsTransient())
}

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want grpccodes.Code
	}{
		{ValidationError, grpccodes.InvalidArgument},
		{TokenExpired, grpccodes.Unauthenticated},
		{Forbidden, grpccodes.PermissionDenied},
		{NotFound, grpccodes.NotFound},
		{DuplicateEntry, grpccodes.AlreadyExists},
		{ResourceLocked, grpccodes.FailedPrecondition},
		{ExternalServiceUnavailable, grpccodes.Unavailable},
		{ExternalServiceTimeout, grpccodes.DeadlineExceeded},
		{MethodNotAllowed, grpccodes.Unimplemented},
		{InternalServerError, grpccodes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.code.Name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.code.GRPCCode())
		})
	}
}

func TestFromGRPCCode(t *testing.T) {
	require.Equal(t, ExternalServiceUnavailable, FromGRPCCode(grpccodes.Unavailable))
	require.Equal(t, InternalServerError, FromGRPCCode(grpccodes.Unknown))
	require.Equal(t, http.StatusNotFound, FromGRPCCode(grpccodes.NotFound).Status)
}
