package domain

import "slices"

// GenreOther lets a reader type their own genre.
const GenreOther = "Other"

// GenreOptions is the fixed genre list offered when adding a book.
var GenreOptions = []string{
	"Adventure Fiction", "Alternate History", "Autobiography", "Beat Literature",
	"Biography", "Children's Literature", "Comedy Fantasy", "Coming of Age",
	"Crime Fiction", "Cyberpunk", "Dark Fantasy", "Drama", "Dystopian Fiction",
	"Fantasy", "Gothic Fiction", "Gothic Romance", "Graphic Novel", "Historical Fiction",
	"Historical Romance", "History", "Holocaust Memoir", "Horror", "Literary Fiction",
	"Magical Realism", "Memoir", "Paranormal Romance", "Political Memoir",
	"Post-Apocalyptic Fiction", "Psychological Thriller", "Romance", "Science Fiction",
	"Short Stories", "Thriller", "Urban Fantasy", "Vampire Fiction", "War Fiction",
	"War Journalism", "War Memoir", "Young Adult", GenreOther,
}

// IsGenreOption reports whether genre is one of GenreOptions.
func IsGenreOption(genre string) bool {
	return slices.Contains(GenreOptions, genre)
}
