// Package devseed holds the starter lesson catalogue loaded into fresh
// databases by the admin CLI and by the server in development mode.
package devseed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codequest/codequest-web/internal/domain/model"
)

// LessonSeeder stores lessons by slug, inserting or updating as needed.
type LessonSeeder interface {
	Seed(ctx context.Context, lessons []*model.Lesson) (int, error)
}

// Lessons returns a fresh copy of the starter catalogue. Positions are
// assigned per track in list order.
func Lessons() []*model.Lesson {
	out := []*model.Lesson{
		{
			Slug:    "hello-world",
			Title:   "Hello, World",
			Kind:    model.LessonKindTutorial,
			Summary: "Print your first line of output.",
			Body:    "Every journey starts with a single print statement. Write a program that greets the world.",
			Points:  10,
		},
		{
			Slug:    "variables",
			Title:   "Variables and Values",
			Kind:    model.LessonKindTutorial,
			Summary: "Store numbers and text in named boxes.",
			Body:    "Variables give names to values so you can reuse them. Declare a few and print them back.",
			Points:  10,
		},
		{
			Slug:    "loops",
			Title:   "Going Round in Loops",
			Kind:    model.LessonKindTutorial,
			Summary: "Repeat work without repeating yourself.",
			Body:    "Use a loop to count from one to ten, then count back down again.",
			Points:  15,
		},
		{
			Slug:    "functions",
			Title:   "Functions",
			Kind:    model.LessonKindTutorial,
			Summary: "Package code into reusable pieces.",
			Body:    "Write a function that takes a name and returns a greeting.",
			Points:  15,
		},
		{
			Slug:    "quiz-basics",
			Title:   "Basics Quiz",
			Kind:    model.LessonKindQuiz,
			Summary: "Check what you learned about values and types.",
			Body:    "Ten quick questions on variables, strings and numbers.",
			Points:  20,
		},
		{
			Slug:    "quiz-control-flow",
			Title:   "Control Flow Quiz",
			Kind:    model.LessonKindQuiz,
			Summary: "If, else and loops under pressure.",
			Body:    "Predict what each snippet prints before you run it.",
			Points:  20,
		},
		{
			Slug:    "fizzbuzz",
			Title:   "FizzBuzz",
			Kind:    model.LessonKindChallenge,
			Summary: "The classic warm-up challenge.",
			Body:    "Print the numbers 1 to 100, replacing multiples of three with Fizz and multiples of five with Buzz.",
			Points:  30,
		},
		{
			Slug:    "palindromes",
			Title:   "Palindrome Hunter",
			Kind:    model.LessonKindChallenge,
			Summary: "Spot words that read the same both ways.",
			Body:    "Write a function that reports whether a word is a palindrome, ignoring case.",
			Points:  30,
		},
		{
			Slug:    "robot-maze",
			Title:   "Robot Maze",
			Kind:    model.LessonKindGame,
			Summary: "Guide the robot to the exit with code.",
			Body:    "Chain move and turn commands to steer the robot through the maze.",
			Points:  40,
		},
		{
			Slug:    "treasure-map",
			Title:   "Treasure Map",
			Kind:    model.LessonKindGame,
			Summary: "Use coordinates to dig up the treasure.",
			Body:    "Read the clues, compute the grid position and dig in the right spot.",
			Points:  40,
		},
	}

	positions := make(map[model.LessonKind]int, len(model.LessonKinds))
	for _, l := range out {
		positions[l.Kind]++
		l.Position = positions[l.Kind]
	}
	return out
}

// Run loads the starter catalogue through seeder.
func Run(ctx context.Context, seeder LessonSeeder, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	n, err := seeder.Seed(ctx, Lessons())
	if err != nil {
		return fmt.Errorf("seed lessons: %w", err)
	}
	logger.InfoContext(ctx, "seeded lesson catalogue", "component", "devseed", "lessons", n)
	return nil
}
