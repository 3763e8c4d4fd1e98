package bot

import tele "gopkg.in/telebot.v4"

// replyButtons builds a reply keyboard from rows of text.
func replyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// labelRows splits a flat list of labels into rows of up to n buttons and
// appends a trailing back row.
func labelRows(labels []string, n int, trailing ...string) [][]string {
	if n < 1 {
		n = 1
	}
	var rows [][]string
	for i := 0; i < len(labels); i += n {
		end := i + n
		if end > len(labels) {
			end = len(labels)
		}
		rows = append(rows, labels[i:end])
	}
	if len(trailing) > 0 {
		rows = append(rows, trailing)
	}
	return rows
}
