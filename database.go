// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package researchd

import (
	"log/slog"

	"github.com/poiesic/researchd/pipeline"
	"github.com/poiesic/researchd/query"
	"github.com/poiesic/researchd/review"
	"github.com/poiesic/researchd/storage"
	"github.com/poiesic/researchd/storage/badger"
)

// Database bundles the task store with factories for the services that
// operate on it. One Database owns one badger directory.
type Database struct {
	backend  *badger.Backend
	taskRepo storage.TaskRepository
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory bool
	logger   *slog.Logger
}

// WithInMemory keeps the store in memory instead of on disk.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithDatabaseLogger sets a custom logger.
// Default is slog.Default().
func WithDatabaseLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	return &Database{
		backend:  backend,
		taskRepo: badger.NewTaskRepository(backend),
		logger:   options.logger,
	}, nil
}

func (db *Database) Close() error {
	// Close repository
	if err := db.taskRepo.Close(); err != nil {
		db.logger.Error("error closing task repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) TaskRepository() storage.TaskRepository {
	return db.taskRepo
}

func (db *Database) NewExecutor(opts ...pipeline.Option) (*pipeline.Executor, error) {
	return pipeline.NewExecutor(db.taskRepo, opts...)
}

func (db *Database) NewQueryService(opts ...query.Option) (*query.Service, error) {
	return query.NewService(db.taskRepo, opts...)
}

func (db *Database) NewReviewService(opts ...review.Option) (*review.Service, error) {
	return review.NewService(db.taskRepo, opts...)
}
