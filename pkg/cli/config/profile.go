package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// Profile is an unattended answer file supplying the same options as the
// command line. Flags win: Apply fills only fields the flags left empty.
type Profile struct {
	Install  profileInstall  `toml:"install"`
	GitHub   profileGitHub   `toml:"github"`
	Database profileDatabase `toml:"database"`
	Model    profileModel    `toml:"model"`
	AWS      profileAWS      `toml:"aws"`
}

type profileInstall struct {
	Dest        string `toml:"dest"`
	Staging     string `toml:"staging"`
	Mode        string `toml:"mode"`
	UpdateToken string `toml:"update_token"`
	Force       bool   `toml:"force"`
}

type profileGitHub struct {
	Repo      string `toml:"repo"`
	Tag       string `toml:"tag"`
	Token     string `toml:"token"`
	Anonymous bool   `toml:"anonymous"`
}

type profileDatabase struct {
	User          string `toml:"user"`
	Password      string `toml:"password"`
	AdminPassword string `toml:"admin_password"`
}

type profileModel struct {
	Source      string `toml:"source"`
	Skip        bool   `toml:"skip"`
	Concurrency int    `toml:"concurrency"`
}

type profileAWS struct {
	Region          string `toml:"region"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	SessionToken    string `toml:"session_token"`
}

// LoadProfile parses a TOML answer file. Unknown keys are rejected so a
// typo in an unattended install fails loudly instead of being ignored.
func LoadProfile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open profile", goerr.V("path", path))
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, goerr.Wrap(err, "failed to parse profile", goerr.V("path", path))
	}
	return &p, nil
}

// Apply copies profile values into the flag-bound configs. String fields
// fill only when the flag left them empty; bool fields can be switched on
// by the profile but never off.
func (p *Profile) Apply(gh *GitHub, inst *Install, db *Database, st *Storage) {
	setIfEmpty(&gh.Repo, p.GitHub.Repo)
	setIfEmpty(&gh.Tag, p.GitHub.Tag)
	setIfEmpty(&gh.Token, p.GitHub.Token)
	if p.GitHub.Anonymous {
		gh.Anonymous = true
	}

	setIfEmpty(&inst.Dest, p.Install.Dest)
	setIfEmpty(&inst.StagingDir, p.Install.Staging)
	setIfEmpty(&inst.InstallMode, p.Install.Mode)
	setIfEmpty(&inst.UpdateToken, p.Install.UpdateToken)
	if p.Install.Force {
		inst.Force = true
	}

	setIfEmpty(&db.User, p.Database.User)
	setIfEmpty(&db.Password, p.Database.Password)
	setIfEmpty(&db.AdminPassword, p.Database.AdminPassword)

	setIfEmpty(&st.ModelSource, p.Model.Source)
	if p.Model.Skip {
		st.SkipModel = true
	}
	if st.Concurrency == 0 && p.Model.Concurrency > 0 {
		st.Concurrency = p.Model.Concurrency
	}
	setIfEmpty(&st.AWSRegion, p.AWS.Region)
	setIfEmpty(&st.AWSAccessKeyID, p.AWS.AccessKeyID)
	setIfEmpty(&st.AWSSecretKey, p.AWS.SecretAccessKey)
	setIfEmpty(&st.AWSSessionToken, p.AWS.SessionToken)
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
