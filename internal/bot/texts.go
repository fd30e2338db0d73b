package bot

// Emoji markers used across replies.
const (
	EmojiNote        = "💿"
	EmojiError       = "🛑"
	EmojiCompleted   = "✅"
	EmojiEmpty       = "🕳"
	EmojiDangerous   = "☢️"
	EmojiCancelled   = "❌"
	EmojiRubricShift = "🔘"
	EmojiLinkShift   = "👉"
	EmojiNonRubric   = "🖤"
)

const (
	MsgReturningUser = "Hello, friend! Do you wanna add something new?"
	MsgCancelled     = "The current action has canceled!"
	MsgMainMenu      = "You are in the main menu."
	MsgActionExpired = EmojiEmpty + " This action is no longer active. Start it again from the menu."
	MsgStaleButton   = EmojiEmpty + " This button is out of date. Start the action again from the menu."
	MsgBadHabit      = "It`s a bad habit to send voice messages. Especially to bot 😁"
	MsgBugSaved      = EmojiCompleted + " Thank you! Your bug report has been saved."

	MsgRubricsHeader  = "It`s a list of your rubrics:"
	MsgRubricsEmpty   = EmojiEmpty + " List of the rubrics is empty!"
	MsgLinksHeader    = "It`s a list of your links:"
	MsgLinksEmpty     = EmojiEmpty + " List of the links is empty!"
	MsgNonRubricTitle = "Non-rubric links"

	MsgInputRubricName        = "Input rubric name [required and unique]."
	MsgRubricNameAccepted     = "Rubric name has been accepted."
	MsgInputRubricDescription = "Input rubric description [optional]."
	MsgRubricNameTaken        = "Oops... Sorry, but <b>you`ve entered non-unique rubric name</b>! " +
		"Please, try another one."
	MsgEmptyRubricDescription = "Empty value has been accepted as rubric description."
	MsgRubricDescription      = "Rubric description has been accepted."
	MsgRubricAdded            = "<b>The new rubric has been added!</b>"

	MsgInputLinkURL          = "Input link url [required]."
	MsgLinkURLAccepted       = "Link url has been accepted."
	MsgInputLinkDescription  = "Input link description [optional]."
	MsgEmptyLinkDescription  = "Empty value has been accepted as link description."
	MsgLinkDescription       = "Link description has been accepted."
	MsgChooseLinkRubric      = "Choose the rubric for the link:"
	MsgLinkRubricGone        = EmojiError + " This rubric does not exist anymore. Choose another one:"
	MsgLinkAddedPrefix       = "<b>The new link has been added!</b>"
	MsgCaughtLinkInvalid     = "I`ve caught your link but validation error has occured:\n"
	MsgCaughtLinkPrefix      = EmojiCompleted + " I`ve caught your link:\n"
	MsgCaughtLinkSuffix      = "\nand added in non-rubric category. 😉"
	MsgChooseLinkToDelete    = "Please, choose the link to delete:"
	MsgNoLinks               = EmojiEmpty + " You don`t have any links!"
	MsgLinkDeleted           = EmojiCompleted + " The link has been deleted!"
	MsgLinkGone              = EmojiEmpty + " This link does not exist anymore!"
	MsgChooseRubricToDelete  = "Please, choose one from the list below:"
	MsgNoRubrics             = EmojiEmpty + " You don`t have any rubrics!"
	MsgRubricGone            = EmojiEmpty + " This rubric does not exist anymore!"
	MsgChooseDisposition     = "What do you prefer to do with the links that related with the current rubric?"
	MsgNoMigrationTarget     = EmojiEmpty + " You don`t have another rubric to move the links in."
	MsgBulkChooseOperation   = EmojiDangerous + " Choose what you want to delete:"
	MsgBulkCancelled         = EmojiCancelled + " Deleting has been cancelled."
	nameFallback             = "friend"
	MsgBugsEmpty             = EmojiEmpty + " There are no bugs."
	MsgAllBugsHeader         = "<b>List of all bugs:</b>"
	MsgUnwatchedBugsHeader   = "<b>List of unwatched bugs:</b>"
	MsgStartupNotification   = "🚀 BOT NOTIFICATION ON STARTUP 🚀\n<b>🤖 Bot is running! 🤖</b>"
	bugSeparator             = "\n➖➖➖➖➖➖➖➖➖➖\n"
	voiceStickerID           = "CAACAgIAAxkBAAIPd2B4Yy5qYOPyjcNqjo1lrOwss8l-AAJrAAPBnGAMlrTfm5MoJjMfBA"
	missedTextSupportSection = "🤖 <b>If this message has risen during simple menu interaction:</b>\n" +
		"Please, use the /bug command and describe situation.\n" +
		"Example: /bug I`ve clicked on this button and nothing has happened"
)

const helpText = EmojiNote + " <b>I keep your links sorted by rubrics.</b>\n\n" +
	"Send me any message with a link and I will save it as a non-rubric link; " +
	"the rest of the message becomes its description.\n\n" +
	"<b>Menu</b>\n" +
	"• <i>See all links</i> lists every link with its rubric.\n" +
	"• <i>See all rubrics</i> lists your rubrics.\n" +
	"• <i>See links by rubric</i> groups the links under their rubrics.\n" +
	"• <i>Add a new link</i> and <i>Add a new rubric</i> ask for the details step by step.\n" +
	"• <i>Delete the link</i> and <i>Delete the rubric</i> let you pick what to remove.\n" +
	"• <i>Serious deleting</i> removes whole groups of data after a confirmation.\n\n" +
	"<b>Commands</b>\n" +
	"/start shows the menu\n" +
	"/cancel stops the current action\n" +
	"/bug &lt;text&gt; reports a problem"
