package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestResolveOrgID(t *testing.T) {
	profileOrg := strPtr("org-profile")
	override := strPtr("org-override")

	cases := []struct {
		name       string
		visibility Visibility
		override   *string
		want       *string
	}{
		{"public drops org", VisibilityPublic, override, nil},
		{"market drops org", VisibilityMarket, override, nil},
		{"org prefers override", VisibilityOrg, override, override},
		{"private falls back to profile", VisibilityPrivate, nil, profileOrg},
		{"empty override falls back", VisibilityOrg, strPtr(""), profileOrg},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveOrgID(tc.visibility, tc.override, profileOrg)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}

	assert.Nil(t, ResolveOrgID(VisibilityOrg, nil, nil))
}

func TestNewDraftActivityDefaults(t *testing.T) {
	draft := NewDraftActivity("draft-abc123")
	require.Len(t, draft.Sections, 5)
	assert.Equal(t, []string{""}, []string(draft.Materials))
	assert.Equal(t, 30, *draft.EstMinutes)
	assert.Equal(t, VisibilityOrg, draft.Visibility)
	assert.Equal(t, AudienceBoth, draft.Audience)
	assert.Equal(t, ListingDraft, draft.ListingStatus)
	assert.Nil(t, draft.PriceMXN)

	caps := make([]int, 0, 5)
	for _, s := range draft.Sections {
		caps = append(caps, s.UploadCap())
	}
	assert.Equal(t, []int{2, 3, 3, 2, 2}, caps)
	assert.True(t, draft.Sections[4].UploadKinds.Has(MediaLink))
	assert.False(t, draft.Sections[0].UploadKinds.Has(MediaLink))
}

func TestSectionDefaults(t *testing.T) {
	var s Section
	assert.True(t, s.UploadsAllowed())
	assert.Equal(t, DefaultMaxUploads, s.UploadCap())
	assert.Equal(t, MediaKinds{MediaImage, MediaVideo}, s.Kinds())
}

func TestMediaListScan(t *testing.T) {
	var list MediaList
	require.NoError(t, list.Scan([]byte(`[{"kind":"image","url":"https://x/y.png","name":"y.png"}]`)))
	require.Len(t, list, 1)
	assert.Equal(t, MediaImage, list[0].Kind)

	require.NoError(t, list.Scan(nil))
	assert.Empty(t, list)

	value, err := MediaList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), value)
}

func TestMediaKindsScan(t *testing.T) {
	var kinds MediaKinds
	require.NoError(t, kinds.Scan([]byte(`{image,link}`)))
	assert.Equal(t, MediaKinds{MediaImage, MediaLink}, kinds)
}

func TestActivityJSONShape(t *testing.T) {
	draft := NewDraftActivity("draft-x")
	raw, err := json.Marshal(draft)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"materialsMedia", "estMinutes", "price_mxn", "listing_status", "sections"} {
		assert.Contains(t, fields, key)
	}
}
