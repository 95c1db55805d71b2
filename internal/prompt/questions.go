package prompt

import "math/rand"

// RandomQuestion возвращает случайный вопрос из кураторского списка.
// Используется только когда активен режим "questions"; на сам выбор
// шаблона никак не влияет.
func RandomQuestion() string {
	return curatedQuestions[rand.Intn(len(curatedQuestions))]
}

var curatedQuestions = []string{
	// Fun & Playful
	"If you could have any superpower for just one day, what would it be and why?",
	"What's the most ridiculous thing you've ever done to avoid doing something else?",
	"If your life was a movie, what would the title be?",
	"What's the weirdest food combination you actually enjoy?",
	"If you could time travel to any era for a week, where would you go?",

	// Creative & Imaginative
	"What's the most creative solution you've ever come up with for a problem?",
	"If you could invent any gadget to make life easier, what would it do?",
	"What's the most beautiful place you've ever imagined but never visited?",
	"If you could paint your dreams, what colors would dominate the canvas?",
	"What's the most magical moment you've ever experienced?",

	// Personal Growth
	"What's something you've learned about yourself recently that surprised you?",
	"What's the best piece of advice you've ever received?",
	"What's something you're looking forward to that most people wouldn't understand?",
	"What's a skill you wish you had that would make life more fun?",
	"What's the most valuable lesson you've learned from a mistake?",

	// Social & Relationships
	"What's the most interesting conversation you've had with a stranger?",
	"What's something you do that always makes people smile?",
	"What's the most thoughtful thing someone has done for you?",
	"What's a tradition you've created with friends or family?",
	"What's the most unexpected friendship you've ever formed?",

	// Adventure & Experience
	"What's the most spontaneous thing you've ever done that turned out great?",
	"What's the most beautiful sound you've ever heard?",
	"What's the most peaceful moment you can remember?",
	"What's something you've always wanted to try but haven't yet?",
	"What's the most interesting person you've ever met and why?",

	// Philosophy & Reflection
	"What's something you believe that most people would disagree with?",
	"What's the most important thing you've changed your mind about?",
	"What's something that always makes you feel hopeful?",
	"What's the most meaningful compliment you've ever received?",
	"What's something you're grateful for that you used to take for granted?",

	// Fun Hypotheticals
	"If you could have dinner with any fictional character, who would it be?",
	"What's the most ridiculous thing you'd do for a million dollars?",
	"If you could master any skill instantly, what would you choose?",
	"What's the most interesting thing you've ever found?",
	"If you could solve any mystery in history, which would you pick?",

	// Light & Engaging
	"What's the most fun you've ever had doing something you were terrible at?",
	"What's something that always makes you laugh, no matter how many times you see it?",
	"What's the most interesting thing you've learned this week?",
	"What's something you're excited about that's coming up soon?",
	"What's the most beautiful thing you've seen today?",
}
