package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/utils/envfile"
)

const (
	envFileName     = ".env"
	envTemplateName = ".env.template"
	versionFileName = "version.txt"
)

// envKeyOrder fixes where newly appended keys land in a patched file
var envKeyOrder = []string{
	"SLIPWAY_UPDATE_TOKEN",
	"SLIPWAY_INSTALL_MODE",
	"DB_HOST",
	"DB_PORT",
	"DB_NAME",
	"DB_USER",
	"DB_PASSWORD",
	"DB_ADMIN_PASSWORD",
	"MODEL_DIR",
}

const defaultEnvContent = `# Runtime configuration written by slipway
SLIPWAY_UPDATE_TOKEN=
SLIPWAY_INSTALL_MODE=
DB_HOST=localhost
DB_PORT=5432
DB_NAME=app
DB_USER=
DB_PASSWORD=
DB_ADMIN_PASSWORD=
MODEL_DIR=
`

// writeEnvFile renders the target's .env from the best available
// source: an existing .env is patched in place, otherwise the payload's
// .env.template seeds it, otherwise a built-in skeleton does. Values
// the operator did not supply are never blanked.
func (x *installUseCase) writeEnvFile(ctx context.Context, req *model.InstallRequest) error {
	logger := ctxlog.From(ctx)
	envPath := filepath.Join(req.Target, envFileName)

	var content string
	var source string
	if data, err := os.ReadFile(envPath); err == nil {
		content = string(data)
		source = "existing"
	} else if data, err := os.ReadFile(filepath.Join(req.Target, envTemplateName)); err == nil {
		content = string(data)
		source = "template"
	} else {
		content = defaultEnvContent
		source = "default"
	}

	modelsDir := req.Env.ModelsDir
	if modelsDir == "" {
		modelsDir = filepath.Join(req.Target, "models")
	}

	updates := map[string]string{
		"SLIPWAY_UPDATE_TOKEN": req.Env.UpdateToken,
		"SLIPWAY_INSTALL_MODE": req.Env.InstallMode,
		"DB_USER":              req.Env.DBUser,
		"DB_PASSWORD":          req.Env.DBPassword,
		"DB_ADMIN_PASSWORD":    req.Env.DBAdminPassword,
		"MODEL_DIR":            modelsDir,
	}

	patched := envfile.Patch(content, updates, envKeyOrder)

	if _, err := writeAtomic(envPath, strings.NewReader(patched), 0, 0600, nil); err != nil {
		return goerr.Wrap(err, "failed to write env file", goerr.V("path", envPath))
	}

	logger.Info("wrote env file", "path", envPath, "source", source)
	return nil
}

func (x *installUseCase) writeVersionFile(ctx context.Context, target, tag string) error {
	path := filepath.Join(target, versionFileName)
	if _, err := writeAtomic(path, strings.NewReader(tag+"\n"), 0, 0644, nil); err != nil {
		return goerr.Wrap(err, "failed to write version file", goerr.V("path", path))
	}

	ctxlog.From(ctx).Debug("wrote version file", "path", path, "tag", tag)
	return nil
}
