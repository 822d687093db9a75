// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package articlestest holds the behavioural specs shared by every
// articles.Repository implementation.
package articlestest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/quillblog/quill/internal/articles"
)

// Base is the reference publication time used by the contract specs.
var Base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// RepositoryContract registers specs against repositories built by newRepo.
// newRepo is called before every example and must return an empty repository.
func RepositoryContract(newRepo func() articles.Repository) {
	var (
		ctx  context.Context
		repo articles.Repository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newRepo()
	})

	publish := func(title string, at time.Time) articles.Article {
		a := articles.Article{
			AuthorName:  "Ada",
			AuthorEmail: "ada@example.com",
			Title:       title,
			Content:     "body of " + title,
			PublishedAt: at,
		}
		Expect(repo.Create(ctx, &a)).To(Succeed())
		Expect(a.ID).To(BeNumerically(">", 0))
		return a
	}

	titles := func(list []articles.Article) []string {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.Title)
		}
		return out
	}

	Describe("Create and Get", func() {
		It("round-trips every field", func() {
			created := publish("first", Base)

			got, err := repo.Get(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(created.ID))
			Expect(got.AuthorName).To(Equal("Ada"))
			Expect(got.AuthorEmail).To(Equal("ada@example.com"))
			Expect(got.Title).To(Equal("first"))
			Expect(got.Content).To(Equal("body of first"))
			Expect(got.PublishedAt).To(BeTemporally("==", Base))
		})

		It("assigns distinct ids", func() {
			a := publish("a", Base)
			b := publish("b", Base)
			Expect(a.ID).NotTo(Equal(b.ID))
		})

		It("reports a missing article as not found", func() {
			_, err := repo.Get(ctx, 424242)
			Expect(err).To(MatchError(articles.ErrNotFound))
		})
	})

	Describe("List", func() {
		It("is empty for a new repository", func() {
			list, err := repo.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})

		It("orders newest first", func() {
			publish("middle", Base.Add(time.Hour))
			publish("oldest", Base)
			publish("newest", Base.Add(2*time.Hour))

			list, err := repo.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(list)).To(Equal([]string{"newest", "middle", "oldest"}))
		})
	})

	Describe("ListByDateRange", func() {
		BeforeEach(func() {
			publish("t0", Base)
			publish("t1", Base.Add(time.Hour))
			publish("t2", Base.Add(2*time.Hour))
			publish("t3", Base.Add(3*time.Hour))
		})

		It("includes both boundaries", func() {
			list, err := repo.ListByDateRange(ctx, Base.Add(time.Hour), Base.Add(2*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(list)).To(Equal([]string{"t2", "t1"}))
		})

		It("returns nothing outside the range", func() {
			list, err := repo.ListByDateRange(ctx, Base.Add(-48*time.Hour), Base.Add(-24*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})

		It("handles a single instant", func() {
			list, err := repo.ListByDateRange(ctx, Base.Add(3*time.Hour), Base.Add(3*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(list)).To(Equal([]string{"t3"}))
		})
	})

	Describe("Comments", func() {
		It("rejects comments on a missing article", func() {
			c := articles.Comment{ArticleID: 987654, Content: "hello", PublishedAt: Base}
			Expect(repo.AddComment(ctx, &c)).To(MatchError(articles.ErrNotFound))
		})

		It("lists an article's comments oldest first", func() {
			a := publish("commented", Base)
			other := publish("other", Base)

			for i, content := range []string{"second", "first", "third"} {
				offsets := []time.Duration{2 * time.Minute, time.Minute, 3 * time.Minute}
				c := articles.Comment{ArticleID: a.ID, Content: content, PublishedAt: Base.Add(offsets[i])}
				Expect(repo.AddComment(ctx, &c)).To(Succeed())
				Expect(c.ID).To(BeNumerically(">", 0))
			}
			stray := articles.Comment{ArticleID: other.ID, Content: "elsewhere", PublishedAt: Base}
			Expect(repo.AddComment(ctx, &stray)).To(Succeed())

			comments, err := repo.ListComments(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(comments).To(HaveLen(3))
			Expect(comments[0].Content).To(Equal("first"))
			Expect(comments[1].Content).To(Equal("second"))
			Expect(comments[2].Content).To(Equal("third"))
			for _, c := range comments {
				Expect(c.ArticleID).To(Equal(a.ID))
			}
		})

		It("returns an empty list for an article without comments", func() {
			a := publish("quiet", Base)
			comments, err := repo.ListComments(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(comments).To(BeEmpty())
		})
	})
}
