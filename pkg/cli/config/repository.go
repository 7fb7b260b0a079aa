package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/repository/file"
	"github.com/secmon-lab/hippo/pkg/repository/firestore"
	"github.com/secmon-lab/hippo/pkg/repository/gcs"
	"github.com/secmon-lab/hippo/pkg/repository/memory"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendFile      = "file"
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendGCS       = "gcs"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend    string
	dataDir    string
	projectID  string
	databaseID string
	bucket     string
	prefix     string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (file, memory, firestore or gcs)",
			Value:       BackendFile,
			Category:    "Repository",
			Sources:     cli.EnvVars("HIPPO_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory of memory documents (file backend)",
			Value:       "./data",
			Category:    "Repository",
			Sources:     cli.EnvVars("HIPPO_DATA_DIR"),
			Destination: &r.dataDir,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("HIPPO_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("HIPPO_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket (required when using gcs backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("HIPPO_GCS_BUCKET"),
			Destination: &r.bucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix in the Cloud Storage bucket",
			Category:    "Repository",
			Sources:     cli.EnvVars("HIPPO_GCS_PREFIX"),
			Destination: &r.prefix,
		},
	}
}

// LogValue implements slog.LogValuer
func (r Repository) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("backend", r.backend)}
	switch r.backend {
	case BackendFile:
		attrs = append(attrs, slog.String("data_dir", r.dataDir))
	case BackendFirestore:
		attrs = append(attrs, slog.String("project_id", r.projectID), slog.String("database_id", r.databaseID))
	case BackendGCS:
		attrs = append(attrs, slog.String("bucket", r.bucket), slog.String("prefix", r.prefix))
	}
	return slog.GroupValue(attrs...)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFile:
		repo, err := file.New(r.dataDir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize file repository")
		}
		logging.Default().Info("Using file repository", "data_dir", r.dataDir)
		return repo, nil

	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendGCS:
		if r.bucket == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "gcs-bucket is required when using gcs backend")
		}
		repo, err := gcs.New(ctx, r.bucket, gcs.WithPrefix(r.prefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize gcs repository")
		}
		logging.Default().Info("Using Cloud Storage repository", "bucket", r.bucket, "prefix", r.prefix)
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V("backend", r.backend))
	}
}
