package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return New([]Record{
		{Identifier: "ci/merge_trains.md", Category: "ci", DisplayName: "merge_trains", ShortBody: "Keep main green"},
		{Identifier: "user/group_sso.md", Category: "user", DisplayName: "group_sso", ShortBody: "Single sign-on", TertiaryBody: "SAML only"},
		{Identifier: "ci/runners.md", Category: "ci", DisplayName: "runners", ShortBody: "Execute jobs", SecondaryBody: "Autoscaling"},
		{Identifier: "security_policies/scan.md", Category: "security_policies", DisplayName: "scan", ShortBody: "Policies"},
	})
}

func TestCatalog_Categories(t *testing.T) {
	got := testCatalog().Categories()
	require.Equal(t, []CategoryCount{
		{Name: "ci", Label: "Ci", Count: 2},
		{Name: "security_policies", Label: "Security Policies", Count: 1},
		{Name: "user", Label: "User", Count: 1},
	}, got)
}

func TestCatalog_Filter(t *testing.T) {
	cat := testCatalog()

	require.Len(t, cat.Filter("", ""), 4)
	require.Len(t, cat.Filter(AllCategories, ""), 4)
	require.Len(t, cat.Filter("ci", ""), 2)

	got := cat.Filter("", "saml")
	require.Len(t, got, 1)
	require.Equal(t, "user/group_sso.md", got[0].Identifier)

	got = cat.Filter("ci", "AUTOSCALING")
	require.Len(t, got, 1)
	require.Equal(t, "runners", got[0].DisplayName)

	require.Empty(t, cat.Filter("user", "runners"))
}

func TestCatalog_RecordsIsCopy(t *testing.T) {
	cat := testCatalog()
	recs := cat.Records()
	recs[0].ShortBody = "mutated"
	require.Equal(t, "Keep main green", cat.Records()[0].ShortBody)
}

func TestCatalog_NilSafe(t *testing.T) {
	var cat *Catalog
	require.Equal(t, 0, cat.Len())
	require.Nil(t, cat.Records())
	_, ok := cat.Find("x")
	require.False(t, ok)
	require.Empty(t, cat.Categories())
}

func TestRecord_Excerpt(t *testing.T) {
	r := Record{ShortBody: "Привет, мир"}
	require.Equal(t, "Привет, мир", r.Excerpt(100))
	require.Equal(t, "Привет, мир", r.Excerpt(0))
	require.Equal(t, "Привет...", r.Excerpt(6))
}

func TestRecord_Slug(t *testing.T) {
	r := Record{Category: "administration", DisplayName: "auditor_users"}
	require.Equal(t, "administration-auditor-users", r.Slug())
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  --a__b--  ", "a-b"},
		{"CI/CD", "ci-cd"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}
