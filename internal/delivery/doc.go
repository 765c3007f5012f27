// Package delivery transmits rendered heatmaps to users of a host platform.
//
// Client posts a base64 image to the send-image endpoint with bounded
// retries. TelegramRelay is the server side of that endpoint: it forwards
// the decoded image to the Telegram Bot API as a document.
package delivery
