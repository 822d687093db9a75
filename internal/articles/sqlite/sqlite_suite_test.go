// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/quillblog/quill/internal/articles"
	"github.com/quillblog/quill/internal/articles/articlestest"
	articlessqlite "github.com/quillblog/quill/internal/articles/sqlite"
	"github.com/quillblog/quill/internal/store"
)

func TestArticlesSQLite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Articles SQLite Suite")
}

var _ = Describe("SQLite Repository", func() {
	var db *sql.DB

	AfterEach(func() {
		if db != nil {
			Expect(db.Close()).To(Succeed())
		}
	})

	articlestest.RepositoryContract(func() articles.Repository {
		path := filepath.Join(GinkgoT().TempDir(), "articles.db")

		migrator, err := store.NewMigrator(store.DriverSQLite, path)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		db, err = store.OpenSQLite(context.Background(), path)
		Expect(err).NotTo(HaveOccurred())
		return articlessqlite.NewRepository(db)
	})
})
