package workflows

import "testing"

func TestSlugifyCompanyURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.acme-corp.com/", "acme-corp-com"},
		{"http://Acme.io", "acme-io"},
		{"acme.io/path?x=1", "acme-io-path-x-1"},
	}
	for _, tc := range cases {
		if got := slugifyCompanyURL(tc.in); got != tc.want {
			t.Fatalf("slugifyCompanyURL(%q): got=%q want=%q", tc.in, got, tc.want)
		}
	}
}
