// Command main runs the database seeder for Parley.
package main

import (
	"flag"
	"log"

	"parley/internal/config"
	"parley/internal/database"
	"parley/internal/seed"
)

func main() {
	numPosts := flag.Int("posts", 50, "Number of posts to create")
	commentsPerPost := flag.Int("comments", 8, "Comments per post")
	numAuthors := flag.Int("authors", 20, "Distinct author IDs to spread content across")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Printf("Target: %d posts, %d comments/post, %d authors, clean=%v\n",
		*numPosts, *commentsPerPost, *numAuthors, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)
	if err := s.Seed(seed.Options{
		NumPosts:        *numPosts,
		CommentsPerPost: *commentsPerPost,
		NumAuthors:      *numAuthors,
		ShouldClean:     *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✅ Seeding complete")
}
