package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mohamed-services/AgentLang/internal/docket"
	"github.com/mohamed-services/AgentLang/internal/types"
)

// Viper keys for run metadata, and the workflow environment variables bound to them.
const (
	KeyNumber      = "run.number"
	KeyTitle       = "run.title"
	KeyDescription = "run.description"
	KeyBase        = "run.base"
	KeyHead        = "run.head"
	KeyRepository  = "run.repository"
)

var runEnv = map[string]string{
	KeyNumber:      "PR_NUMBER",
	KeyTitle:       "PR_TITLE",
	KeyDescription: "PR_BODY",
	KeyBase:        "BASE_SHA",
	KeyHead:        "HEAD_SHA",
	KeyRepository:  "REPO_FULL_NAME",
}

// BindRunEnv binds the run metadata keys to their environment variables. Flags bound
// to the same keys take precedence.
func BindRunEnv(v *viper.Viper) error {
	for key, env := range runEnv {
		if err := v.BindEnv(key, env); err != nil {
			return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to bind "+env, err)
		}
	}
	return nil
}

// RunMeta reads the pull request metadata from v. Number, base and head are required.
func RunMeta(v *viper.Viper) (docket.Meta, error) {
	return readMeta(v, true)
}

// RunRange reads the same metadata but only requires base and head. It serves local
// runs that publish nothing.
func RunRange(v *viper.Viper) (docket.Meta, error) {
	return readMeta(v, false)
}

func readMeta(v *viper.Viper, needNumber bool) (docket.Meta, error) {
	meta := docket.Meta{
		Number:      v.GetInt(KeyNumber),
		Title:       v.GetString(KeyTitle),
		Description: v.GetString(KeyDescription),
		BaseSHA:     strings.TrimSpace(v.GetString(KeyBase)),
		HeadSHA:     strings.TrimSpace(v.GetString(KeyHead)),
		Repository:  strings.TrimSpace(v.GetString(KeyRepository)),
	}

	var missing []string
	if needNumber && meta.Number <= 0 {
		missing = append(missing, fmt.Sprintf("--pr (%s)", runEnv[KeyNumber]))
	}
	if meta.BaseSHA == "" {
		missing = append(missing, fmt.Sprintf("--base (%s)", runEnv[KeyBase]))
	}
	if meta.HeadSHA == "" {
		missing = append(missing, fmt.Sprintf("--head (%s)", runEnv[KeyHead]))
	}
	if len(missing) > 0 {
		return docket.Meta{}, types.NewError(types.RUN_INVALID_REQUEST,
			"missing pull request metadata: "+strings.Join(missing, ", "))
	}

	return meta, nil
}
