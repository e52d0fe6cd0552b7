package envfile_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/slipway-sh/slipway/pkg/utils/envfile"
)

func TestParse(t *testing.T) {
	content := strings.Join([]string{
		"# database settings",
		"DB_HOST=localhost",
		"DB_PORT=5432",
		"",
		"export DB_USER=app",
		`DB_PASSWORD="p@ss word"`,
		`GREETING='hello #world'`,
	}, "\n")

	env, err := envfile.Parse(content)
	gt.NoError(t, err)
	gt.Equal(t, env["DB_HOST"], "localhost")
	gt.Equal(t, env["DB_PORT"], "5432")
	gt.Equal(t, env["DB_USER"], "app")
	gt.Equal(t, env["DB_PASSWORD"], "p@ss word")
	gt.Equal(t, env["GREETING"], "hello #world")
	gt.Equal(t, len(env), 5)
}

func TestParse_EscapedValues(t *testing.T) {
	env, err := envfile.Parse(`TOKEN="abc\"def\\ghi"`)
	gt.NoError(t, err)
	gt.Equal(t, env["TOKEN"], `abc"def\ghi`)
}

func TestParse_InvalidLine(t *testing.T) {
	_, err := envfile.Parse("NOT A KEY VALUE LINE")
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("invalid env file line")
}

func TestParse_UnterminatedQuote(t *testing.T) {
	_, err := envfile.Parse(`TOKEN="never closed`)
	gt.Error(t, err)
}

func TestPatch_UpdatesInPlace(t *testing.T) {
	content := strings.Join([]string{
		"# managed settings",
		"GITHUB_TOKEN=old-token",
		"DB_USER=app",
		"",
		"# keep this comment",
		"DB_HOST=localhost",
	}, "\n")

	patched := envfile.Patch(content, map[string]string{
		"GITHUB_TOKEN": "new-token",
	}, []string{"GITHUB_TOKEN"})

	lines := strings.Split(patched, "\n")
	gt.Equal(t, lines[0], "# managed settings")
	gt.Equal(t, lines[1], "GITHUB_TOKEN=new-token")
	gt.Equal(t, lines[2], "DB_USER=app")
	gt.String(t, patched).Contains("# keep this comment")
	gt.String(t, patched).Contains("DB_HOST=localhost")
}

func TestPatch_AppendsMissingKeys(t *testing.T) {
	content := "DB_HOST=localhost"

	patched := envfile.Patch(content, map[string]string{
		"DB_USER":     "app",
		"DB_PASSWORD": "secret",
	}, []string{"DB_USER", "DB_PASSWORD"})

	env, err := envfile.Parse(patched)
	gt.NoError(t, err)
	gt.Equal(t, env["DB_HOST"], "localhost")
	gt.Equal(t, env["DB_USER"], "app")
	gt.Equal(t, env["DB_PASSWORD"], "secret")

	// Append order follows the given key order
	userIdx := strings.Index(patched, "DB_USER=")
	passIdx := strings.Index(patched, "DB_PASSWORD=")
	gt.Number(t, userIdx).Less(passIdx)
}

func TestPatch_SkipsEmptyValues(t *testing.T) {
	content := "DB_PASSWORD=placeholder"

	patched := envfile.Patch(content, map[string]string{
		"DB_PASSWORD": "",
	}, []string{"DB_PASSWORD"})

	gt.String(t, patched).Contains("DB_PASSWORD=placeholder")
}

func TestPatch_QuotesValuesWithSpaces(t *testing.T) {
	patched := envfile.Patch("", map[string]string{
		"APP_NAME": "my app",
	}, []string{"APP_NAME"})

	env, err := envfile.Parse(patched)
	gt.NoError(t, err)
	gt.Equal(t, env["APP_NAME"], "my app")
}

func TestPatch_RoundTrip(t *testing.T) {
	patched := envfile.Patch("", map[string]string{
		"TOKEN": `with "quotes" and \slashes\`,
	}, []string{"TOKEN"})

	env, err := envfile.Parse(patched)
	gt.NoError(t, err)
	gt.Equal(t, env["TOKEN"], `with "quotes" and \slashes\`)
}
