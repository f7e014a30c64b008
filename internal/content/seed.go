package content

import (
	"fmt"

	"quiz-arena-service/internal/domain"
)

var difficultyPoints = map[string]int{
	"easy":   100,
	"medium": 150,
	"hard":   200,
}

type seed struct {
	category   string
	difficulty string
	text       string
	options    []string
	answer     int
	why        string
}

// SeededQuestions returns the built-in question bank.
func SeededQuestions() []domain.Question {
	seeds := []seed{
		{"geography", "easy", "What is the capital of France?", []string{"Berlin", "Paris", "Madrid", "Rome"}, 1, "Paris has been the French capital since the 10th century."},
		{"geography", "easy", "What is the largest ocean on Earth?", []string{"Atlantic", "Indian", "Arctic", "Pacific"}, 3, "The Pacific covers about a third of the planet's surface."},
		{"geography", "easy", "How many continents are there?", []string{"5", "6", "7", "8"}, 2, "Africa, Antarctica, Asia, Australia, Europe, North and South America."},
		{"geography", "medium", "Which continent is the Sahara Desert located in?", []string{"Asia", "Africa", "South America", "Australia"}, 1, "The Sahara spans most of North Africa."},
		{"geography", "medium", "Which country is home to the Great Barrier Reef?", []string{"New Zealand", "Australia", "Indonesia", "Philippines"}, 1, "The reef lies off the coast of Queensland."},
		{"geography", "hard", "What is the smallest country in the world?", []string{"Monaco", "Vatican City", "San Marino", "Liechtenstein"}, 1, "Vatican City covers roughly 0.44 square kilometres."},
		{"geography", "hard", "Which mountain range separates Europe from Asia?", []string{"Alps", "Himalayas", "Ural Mountains", "Andes"}, 2, "The Urals are the conventional boundary."},
		{"science", "easy", "Which planet is known as the Red Planet?", []string{"Earth", "Venus", "Mars", "Jupiter"}, 2, "Iron oxide on its surface gives Mars its colour."},
		{"science", "easy", "What is the chemical symbol for water?", []string{"H2O", "CO2", "O2", "NaCl"}, 0, "Two hydrogen atoms bonded to one oxygen atom."},
		{"science", "easy", "What gas do plants absorb from the atmosphere?", []string{"Oxygen", "Nitrogen", "Carbon Dioxide", "Hydrogen"}, 2, "Plants use carbon dioxide in photosynthesis."},
		{"science", "medium", "What is the chemical symbol for gold?", []string{"Go", "Gd", "Au", "Ag"}, 2, "Au comes from the Latin aurum."},
		{"science", "medium", "What is the most abundant gas in Earth's atmosphere?", []string{"Oxygen", "Carbon Dioxide", "Nitrogen", "Argon"}, 2, "Nitrogen makes up about 78% of the air."},
		{"science", "medium", "What is the powerhouse of the cell?", []string{"Nucleus", "Mitochondria", "Ribosome", "Golgi Apparatus"}, 1, "Mitochondria produce most of the cell's ATP."},
		{"science", "hard", "Which physicist developed the theory of General Relativity?", []string{"Newton", "Bohr", "Einstein", "Hawking"}, 2, "Einstein published it in 1915."},
		{"science", "hard", "How many bones are in an adult human body?", []string{"196", "206", "216", "226"}, 1, "Many bones fuse during development, leaving 206."},
		{"math", "easy", "What is 15 multiplied by 4?", []string{"50", "60", "70", "80"}, 1, "15 x 4 = 60."},
		{"math", "easy", "What is 7 times 8?", []string{"54", "56", "58", "60"}, 1, "7 x 8 = 56."},
		{"math", "medium", "What is the square root of 144?", []string{"10", "11", "12", "14"}, 2, "12 x 12 = 144."},
		{"math", "medium", "What is 15% of 200?", []string{"25", "30", "35", "40"}, 1, "0.15 x 200 = 30."},
		{"math", "hard", "What is 2 to the power of 5?", []string{"16", "32", "64", "128"}, 1, "2 x 2 x 2 x 2 x 2 = 32."},
		{"math", "hard", "What is the area of a circle with radius 5? (pi ~ 3.14)", []string{"78.5", "31.4", "15.7", "62.8"}, 0, "pi x r squared = 3.14 x 25."},
		{"history", "easy", "Who painted the Mona Lisa?", []string{"Van Gogh", "Picasso", "Da Vinci", "Monet"}, 2, "Leonardo da Vinci painted it in the early 1500s."},
		{"history", "easy", "In which year did World War II end?", []string{"1943", "1944", "1945", "1946"}, 2, "The war ended in 1945."},
		{"history", "medium", "In what year did the Titanic sink?", []string{"1905", "1912", "1918", "1922"}, 1, "It sank on its maiden voyage in April 1912."},
		{"history", "medium", "Who was the first person to walk on the moon?", []string{"Buzz Aldrin", "Neil Armstrong", "Michael Collins", "John Glenn"}, 1, "Armstrong stepped out of Apollo 11 in 1969."},
		{"history", "hard", "In which year did the Berlin Wall fall?", []string{"1987", "1989", "1991", "1993"}, 1, "The wall opened on 9 November 1989."},
		{"history", "hard", "Which ancient wonder was located in Alexandria?", []string{"Hanging Gardens", "Colossus", "Lighthouse", "Pyramids"}, 2, "The Pharos lighthouse stood on the island of Pharos."},
		{"literature", "easy", "Who wrote 'Romeo and Juliet'?", []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"}, 1, "Shakespeare wrote it around 1595."},
		{"literature", "medium", "Who wrote 'Pride and Prejudice'?", []string{"Emily Bronte", "Jane Austen", "Mary Shelley", "George Eliot"}, 1, "Austen published it in 1813."},
		{"literature", "hard", "Which novel opens with 'Call me Ishmael'?", []string{"Moby-Dick", "Treasure Island", "The Odyssey", "Robinson Crusoe"}, 0, "Herman Melville's Moby-Dick, 1851."},
	}

	out := make([]domain.Question, 0, len(seeds))
	for i, s := range seeds {
		out = append(out, domain.Question{
			ID:                 fmt.Sprintf("seed-%s-%03d", s.category, i+1),
			Text:               s.text,
			Options:            s.options,
			CorrectAnswerIndex: s.answer,
			Explanation:        s.why,
			Difficulty:         s.difficulty,
			Category:           s.category,
			Points:             difficultyPoints[s.difficulty],
		})
	}
	return out
}
