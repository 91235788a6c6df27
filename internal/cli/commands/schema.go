package commands

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/topickey/internal/cli/ui"
	"github.com/conduit-lang/topickey/internal/utils"
	"github.com/conduit-lang/topickey/pkg/keyschema"
)

// schemaFiles resolves the schema files named by args, falling back to
// the configured schema.paths. Directories expand to the schema files
// below them.
func schemaFiles(env *environment, args []string) ([]string, error) {
	paths := args
	if len(paths) == 0 {
		paths = env.cfg.Schema.Paths
	}
	if len(paths) == 0 {
		return nil, errors.New("no schema files given and schema.paths is not configured")
	}
	return utils.ExpandSchemaPaths(paths)
}

// loadRegistry registers the types of every schema file in argument
// order into one registry, so later files may use key types of earlier
// ones.
func loadRegistry(env *environment, args []string) (*keyschema.Registry, []*keyschema.Descriptor, error) {
	paths, err := schemaFiles(env, args)
	if err != nil {
		return nil, nil, err
	}

	reg := keyschema.NewRegistry(keyschema.WithLogger(env.logger))
	var descs []*keyschema.Descriptor
	for _, path := range paths {
		defs, err := keyschema.LoadSchemaFile(path)
		if err != nil {
			return nil, nil, err
		}

		registered, err := reg.RegisterAll(defs)
		descs = append(descs, registered...)
		if err != nil {
			return nil, nil, &displayError{
				err:     fmt.Errorf("%s: %w", path, err),
				message: ui.SchemaError(err, env.cfg.Output.NoColor),
			}
		}

		env.logger.Debug("loaded schema file",
			zap.String("path", path),
			zap.Int("types", len(registered)),
		)
	}
	return reg, descs, nil
}

// lookup returns the descriptor of typeID or a type-not-found error with
// suggestions from the registered identifiers
func lookup(env *environment, reg *keyschema.Registry, typeID string) (*keyschema.Descriptor, error) {
	if d, ok := reg.Get(typeID); ok {
		return d, nil
	}
	suggestions := ui.FindSimilar(typeID, reg.List(), nil)
	return nil, &displayError{
		err:     fmt.Errorf("unknown type %q", typeID),
		message: ui.TypeNotFoundError(typeID, suggestions, env.cfg.Output.NoColor),
	}
}
