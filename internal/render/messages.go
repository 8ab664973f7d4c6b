package render

import (
	"fmt"
	"strings"

	"github.com/robalobadob/wordle-with-friends/internal/game"
	"github.com/robalobadob/wordle-with-friends/internal/words"
)

// Fixed replies.
const (
	NoGamesPlayed    = "No games have been played. Start a new one with /start."
	NoGuessesYet     = "There have been no guesses so far. Use /guess to guess."
	NoOngoingGame    = "There is no ongoing game! Start a new one with /start."
	GameOngoing      = "There is an ongoing game already!"
	GroupGameOngoing = "There is an ongoing game. Use /guess to guess the word!"
	NotSolitaire     = "It's Wordle not Solitaire! Use /start to start a game with your friends."
	AskForWord       = "Let's play Wordle with friends! First type your chosen word (4-6 characters) into the message box and press enter."
	Cancelled        = "Ok! Start a new game with /start"
	GuessUsage       = "Use /guess followed by your word, e.g. /guess crane."
	PendingExpired   = "I don't have a word from you. Message me privately and use /start to set one."
	StaleGuess       = "Someone guessed at the same time as you. Check /history and try again."
	StartServerFail  = "Error encountered in the server. Please try again with /start."
	GuessServerFail  = "Error encountered in the server. Please try again with /guess."
	ReadServerFail   = "Error encountered in the server. Please try again later."
)

// InvalidAnswer is sent when a proposed answer is not legal.
var InvalidAnswer = fmt.Sprintf(
	"Please set a valid word! Words must be between %d to %d characters and present in the dictionary.",
	words.MinAnswerLen, words.MaxAnswerLen)

// InvalidAnswerPrivate adds the /cancel hint used in the private set-word step.
var InvalidAnswerPrivate = InvalidAnswer + " Use /cancel to exit."

// Help lists the commands.
var Help = strings.Join([]string{
	"/start to start a game",
	"/guess to guess the word",
	"/history to see past guesses",
}, "\n")

// GameStarted announces a new round to the chat.
func GameStarted(setter game.Player, answerLen int) string {
	return fmt.Sprintf("%s has started Wordle with Friends! The word is %d characters long. Use /guess to guess. You have %d tries.",
		Mention(setter), answerLen, game.MaxGuesses)
}

// InvalidGuess is sent when a guess is not a legal word of the right length.
func InvalidGuess(word string, answerLen int) string {
	return fmt.Sprintf("%q is invalid! Your guess must be a legal word of %d characters! Use /guess to try again.", word, answerLen)
}

// SetWordLink invites a player to set their word privately.
func SetWordLink(url string) string {
	return fmt.Sprintf("Let's play Wordle with Friends! Go here to set your word: \n[▶️ Set word](%s).", url)
}

// ChooseChatLink confirms the chosen answer and links to the group picker.
func ChooseChatLink(answer, url string) string {
	return fmt.Sprintf("Great, %s is the answer! Now choose a chat to play with: \n[▶️ Choose chat](%s).", strings.ToUpper(answer), url)
}
