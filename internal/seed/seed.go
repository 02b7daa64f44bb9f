// Package seed loads the demonstration dataset: three accounts (one per
// role), the 50-title catalog, and a handful of historical loans. Loan
// history is created through the circulation service with explicit dates,
// never by raw writes, so seeding cannot break the availability invariant.
package seed

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Moosa-5616/Library-management-system/internal/models"
	"github.com/Moosa-5616/Library-management-system/internal/services"
)

// BookSeed is one catalog entry.
type BookSeed struct {
	Title    string
	Category string
	Author   string
	Code     string
}

// Books returns the 50-title seed catalog.
func Books() []BookSeed {
	return []BookSeed{
		{"To Kill a Mockingbird", "Fiction", "Harper Lee", "FIC001"},
		{"1984", "Fiction", "George Orwell", "FIC002"},
		{"Pride and Prejudice", "Romance", "Jane Austen", "ROM001"},
		{"The Great Gatsby", "Fiction", "F. Scott Fitzgerald", "FIC003"},
		{"Harry Potter and the Philosopher's Stone", "Fantasy", "J.K. Rowling", "FAN001"},
		{"The Catcher in the Rye", "Fiction", "J.D. Salinger", "FIC004"},
		{"Lord of the Flies", "Fiction", "William Golding", "FIC005"},
		{"The Hobbit", "Fantasy", "J.R.R. Tolkien", "FAN002"},
		{"Fahrenheit 451", "Science Fiction", "Ray Bradbury", "SCI001"},
		{"Jane Eyre", "Romance", "Charlotte Brontë", "ROM002"},
		{"Wuthering Heights", "Romance", "Emily Brontë", "ROM003"},
		{"The Lord of the Rings", "Fantasy", "J.R.R. Tolkien", "FAN003"},
		{"Animal Farm", "Fiction", "George Orwell", "FIC006"},
		{"Brave New World", "Science Fiction", "Aldous Huxley", "SCI002"},
		{"The Kite Runner", "Drama", "Khaled Hosseini", "DRA001"},
		{"Life of Pi", "Adventure", "Yann Martel", "ADV001"},
		{"The Book Thief", "Historical Fiction", "Markus Zusak", "HIS001"},
		{"The Alchemist", "Philosophy", "Paulo Coelho", "PHI001"},
		{"One Hundred Years of Solitude", "Magical Realism", "Gabriel García Márquez", "MAG001"},
		{"The Picture of Dorian Gray", "Gothic", "Oscar Wilde", "GOT001"},
		{"Dracula", "Horror", "Bram Stoker", "HOR001"},
		{"Frankenstein", "Horror", "Mary Shelley", "HOR002"},
		{"The Strange Case of Dr. Jekyll and Mr. Hyde", "Horror", "Robert Louis Stevenson", "HOR003"},
		{"A Tale of Two Cities", "Historical Fiction", "Charles Dickens", "HIS002"},
		{"Great Expectations", "Fiction", "Charles Dickens", "FIC007"},
		{"Oliver Twist", "Fiction", "Charles Dickens", "FIC008"},
		{"David Copperfield", "Fiction", "Charles Dickens", "FIC009"},
		{"The Adventures of Tom Sawyer", "Adventure", "Mark Twain", "ADV002"},
		{"Adventures of Huckleberry Finn", "Adventure", "Mark Twain", "ADV003"},
		{"Moby Dick", "Adventure", "Herman Melville", "ADV004"},
		{"The Odyssey", "Epic", "Homer", "EPI001"},
		{"The Iliad", "Epic", "Homer", "EPI002"},
		{"Romeo and Juliet", "Drama", "William Shakespeare", "DRA002"},
		{"Hamlet", "Drama", "William Shakespeare", "DRA003"},
		{"Macbeth", "Drama", "William Shakespeare", "DRA004"},
		{"Othello", "Drama", "William Shakespeare", "DRA005"},
		{"King Lear", "Drama", "William Shakespeare", "DRA006"},
		{"A Midsummer Night's Dream", "Comedy", "William Shakespeare", "COM001"},
		{"The Merchant of Venice", "Drama", "William Shakespeare", "DRA007"},
		{"The Tempest", "Drama", "William Shakespeare", "DRA008"},
		{"Don Quixote", "Adventure", "Miguel de Cervantes", "ADV005"},
		{"War and Peace", "Historical Fiction", "Leo Tolstoy", "HIS003"},
		{"Anna Karenina", "Romance", "Leo Tolstoy", "ROM004"},
		{"Crime and Punishment", "Psychological Fiction", "Fyodor Dostoevsky", "PSY001"},
		{"The Brothers Karamazov", "Philosophical Fiction", "Fyodor Dostoevsky", "PHI002"},
		{"Les Misérables", "Historical Fiction", "Victor Hugo", "HIS004"},
		{"The Hunchback of Notre-Dame", "Historical Fiction", "Victor Hugo", "HIS005"},
		{"The Count of Monte Cristo", "Adventure", "Alexandre Dumas", "ADV006"},
		{"The Three Musketeers", "Adventure", "Alexandre Dumas", "ADV007"},
		{"Around the World in Eighty Days", "Adventure", "Jules Verne", "ADV008"},
	}
}

// Users returns the three demonstration accounts.
func Users() []models.User {
	return []models.User{
		{
			Role:     models.RoleAdmin,
			Name:     "Administrator",
			Phone:    "7382950164",
			Password: "Admin 0011",
		},
		{
			Role:            models.RoleStudent,
			Name:            "Moosa",
			AdmissionNumber: "7354",
			ClassName:       "8th",
			Section:         "Green",
			RollNumber:      "19",
			Password:        "student123",
		},
		{
			Role:       models.RoleEmployee,
			Name:       "Mehraj ud din mir",
			Department: "ICT",
			Subject:    "Computer",
			Password:   "Mehraj123",
		},
	}
}

// Load populates an empty database with users, the catalog, and demo loan
// history relative to now. It is not idempotent; call only on a fresh
// schema.
func Load(db *gorm.DB, catalog services.CatalogService, circulation services.CirculationService, now time.Time) error {
	users := Users()
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			return fmt.Errorf("seed user %q: %w", users[i].DisplayName(), err)
		}
	}
	student := users[1]
	employee := users[2]

	booksByCode := make(map[string]models.Book, 50)
	for _, b := range Books() {
		created, err := catalog.AddBook(b.Title, b.Category, b.Author, b.Code)
		if err != nil {
			return fmt.Errorf("seed book %s: %w", b.Code, err)
		}
		booksByCode[b.Code] = *created
	}

	daysAgo := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	// Completed loans first, so the books are back on the shelf before the
	// current loans claim them.
	completed := []struct {
		user       models.User
		code       string
		issuedDays int
	}{
		{student, "FIC001", 5},
		{student, "FIC002", 8},
		{employee, "FIC003", 10},
		{employee, "FAN001", 9},
		{employee, "FIC004", 7},
	}
	for _, c := range completed {
		txn, err := circulation.Issue(c.user.ID, booksByCode[c.code].ID, daysAgo(c.issuedDays))
		if err != nil {
			return fmt.Errorf("seed issue %s: %w", c.code, err)
		}
		if err := circulation.Return(txn.ID, daysAgo(1)); err != nil {
			return fmt.Errorf("seed return %s: %w", c.code, err)
		}
	}

	// Open loans: one overdue by 6 days for the student, the rest recent.
	open := []struct {
		user       models.User
		code       string
		issuedDays int
	}{
		{student, "ADV006", 13},
		{student, "ADV007", 3},
		{student, "ADV008", 3},
		{employee, "FIC001", 3},
		{employee, "FIC002", 3},
		{employee, "ROM001", 3},
	}
	for _, o := range open {
		if _, err := circulation.Issue(o.user.ID, booksByCode[o.code].ID, daysAgo(o.issuedDays)); err != nil {
			return fmt.Errorf("seed issue %s: %w", o.code, err)
		}
	}

	log.Printf("[INFO] seed: loaded %d users, %d books, %d loan records",
		len(users), len(booksByCode), len(completed)*2+len(open))
	return nil
}
