package orders

import (
	"fmt"
	"html"
	"strings"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/cryptonaira/nairadesk/net"
	"github.com/shopspring/decimal"
)

// EscapeHTML makes user typed text safe to place in an HTML formatted
// message. Nothing is dropped, so bank details reach the admin intact.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

func escape(s string) string {
	return EscapeHTML(s)
}

func naira(d decimal.Decimal) string {
	return "₦" + d.StringFixed(2)
}

func usdt(d decimal.Decimal) string {
	return d.String() + " USDT"
}

// CountdownText renders the countdown display.
func CountdownText(seconds int) string {
	return "⏳ Time remaining: " + models.FormatCountdown(seconds)
}

// ScamWarning is shown on /start and on login.
const ScamWarning = "⚠️ <b>SCAM ALERT!</b> ⚠️\n\n" +
	"🚨 <b>No transaction outside this bot is permitted or authorized.</b>\n" +
	"🚫 <b>Admin will NEVER call or message you for transactions outside this bot.</b>\n" +
	"❌ <b>Anyone who falls victim to scammers does so at their own risk. The admin will not be held responsible.</b>\n" +
	"✅ <b>Always ensure your transactions are done within this bot for safety.</b>"

const (
	textChooseAction     = "What would you like to do?"
	textInvalidAmount    = "❌ Invalid amount. Please enter a positive number, for example 50."
	textReceiptUploaded  = "✅ Receipt uploaded successfully. Awaiting admin confirmation."
	textProofUploaded    = "✅ Proof received. Awaiting admin confirmation."
	textAskWallet        = "✅ Payment confirmed!\n\n📌 Provide your wallet address for USDT transfer."
	textEmptyWallet      = "❌ Please send your wallet address as text."
	textChooseNetwork    = "✅ Choose the USDT network:"
	textChooseSellNet    = "📌 Please select the <b>network</b> for your USDT transfer:"
	textInvalidNetwork   = "⚠️ Oh! Gosh! you have entered or selected an Invalid Network"
	textAwaitTransfer    = "⏳ Awaiting USDT transfer confirmation from the admin."
	textBankDetailsAsk   = "✅ Transaction confirmed. Please provide your Naira bank details in this format:\n\nBank Name\nAccount Number\nAccount Name"
	textBankDetailsRetry = "❌ Please provide your bank details in the correct format:\n\nBank Name\nAccount Number\nAccount Name"
	textBankReceived     = "✅ Bank details received. Waiting for admin to process your payment."
	textCancelled        = "❌ Transaction cancelled.\nI am sorry to see that you cancelled the transaction.\nHope you use my service again?"
	textNoTransaction    = "❌ No active transaction found."
	textTimedOut         = "⏱️ Transaction timed out!\n\n🔒 You have been logged out due to inactivity. Please /login to start a new transaction."
	textGoodbye          = "👋 Thank you for using our service. Have a great day!"
	textAnotherOne       = "Would you like to start another transaction?"
	textPendingReassure  = "⏳ <b>Payment has already been processed!</b>\n\n<i>Please exercise patience.</i>\n" +
		"Bank network delays or inter-banking processes might cause slight delays.\n\n" +
		"We assure you that your funds are on the way. Kindly hold on while the transfer is completed. ✅"
	textUnderReview = "⏳ Your payment is under review.\nThe transfer is yet to reflect. This could be due to\n\n" +
		"1: Poor Internet Network connection\n2: Inter-bank transfer delays\n\nPlease exercise patience."
)

// templates renders the messages that depend on the desk.
type templates struct {
	desk *models.Desk
}

func (t templates) support() string {
	return fmt.Sprintf("%s or on Telegram %s", escape(t.desk.SupportEmail), escape(t.desk.SupportTelegram))
}

// Apology is the generic failure message.
func (t templates) Apology() string {
	return "❌ Sorry, something went wrong. Please try again later or contact support " + t.support() + "."
}

func (t templates) started(d models.Direction) string {
	return fmt.Sprintf("🎉 WOW, That's Awesome\n\n💰 You chose to %s USDT.\n\nEnter the amount:", d.Title())
}

func (t templates) payInstructions(tx models.Transaction) string {
	return fmt.Sprintf("✅ Exchange Rate: %s/USDT\n💵 You will pay: %s\n\n🔹 Transfer the amount to:\n%s\n\n"+
		"Make your transfer into the Naira account provided\n📎 Then upload proof of payment after transfer.",
		naira(tx.Rate), naira(tx.FiatAmount), escape(t.desk.BankAccount))
}

func (t templates) sellQuote(tx models.Transaction) string {
	return fmt.Sprintf("✅ Exchange Rate: %s/USDT\n💰 You will receive: %s\n\n⚠️ Are you sure you want to proceed?",
		naira(tx.Rate), naira(tx.FiatAmount))
}

func (t templates) rejectedProof() string {
	return "❌ Your proof of payment has been rejected. This could be for one or more reasons such as\n\n" +
		"1. Wrong upload: please check that your upload is correct\n" +
		"2. Unclear (blurred) upload: please re-upload a clearer image for verification\n\n" +
		"If you think this is NOT right, please contact support " + t.support() + "."
}

func (t templates) notReceivedBuy() string {
	return "⚠️ We apologise for any delay. This could be due to a poor network connection or an inter-bank transfer.\n\n" +
		"Please wait some minutes for the transaction to reflect, then click <b>Confirm Received</b> above.\n" +
		"Or you can contact admin " + t.support() + "."
}

func (t templates) notReceivedSell() string {
	return "⚠️ Your issue has been reported to the admin or you can chat up support on Telegram " +
		escape(t.desk.SupportTelegram) + ". They will contact you shortly."
}

func (t templates) buyNetworkChosen(tx models.Transaction) string {
	return fmt.Sprintf("✅ You selected <b>%s</b> network.\n\n📩 Please wait while the USDT transfer is done into your wallet address:\n\n🔹 Address: <code>%s</code>",
		tx.Network, escape(tx.Counterparty))
}

func (t templates) sellPayInstructions(tx models.Transaction) string {
	return fmt.Sprintf("✅ Please upload a clear, readable screenshot of the transaction as proof here.\n\n"+
		"Pay this amount: %s\n🔹 Network: %s\n\nPay %s into the wallet address below. Tap it to copy:\n\n<code>%s</code>",
		usdt(tx.Amount), tx.Network, usdt(tx.Amount), escape(tx.CompanyWallet))
}

func (t templates) buyTransferDone() string {
	return "✅ The admin has confirmed the USDT transfer.\n\n📌 Please confirm if you have received it."
}

func (t templates) sellPayoutDone() string {
	return "✅ The admin has confirmed the Naira transfer to your bank account.\n\nPlease verify you received the funds and confirm below:"
}

func (t templates) completed(tx models.Transaction) string {
	if tx.IsSell() {
		return "🎉 Thank you for confirming! Transaction completed successfully."
	}
	return "✅ Transaction completed successfully!"
}

func (t templates) rates(buy, sell decimal.Decimal) string {
	return fmt.Sprintf("Current Exchange Rates:\n\nBuy: 1 USDT = %s\nSell: 1 USDT = %s", naira(buy), naira(sell))
}

// Admin side.

func who(tx models.Transaction) string {
	if tx.Username != "" {
		return fmt.Sprintf("%s (@%s)", tx.Owner, escape(tx.Username))
	}
	return tx.Owner.String()
}

func (t templates) adminBuyProof(tx models.Transaction) string {
	return fmt.Sprintf("📥 Payment proof received from %s to buy USDT.\n💵 Amount: %s\n💰 USDT Amount: %s\n🔍 Please verify and confirm.",
		who(tx), naira(tx.FiatAmount), usdt(tx.Amount))
}

func (t templates) adminSellProof(tx models.Transaction) string {
	return fmt.Sprintf("📥 USDT transfer proof from user %s to sell USDT.\n💰 Amount: %s\n🔹 Network: %s\n🔍 Please verify and confirm.",
		who(tx), usdt(tx.Amount), tx.Network)
}

func (t templates) adminTransferRequest(tx models.Transaction, addrErr error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 User %s provided wallet details:\n🔹 Address: <code>%s</code>\n🔹 Network: %s\n💰 Amount: %s\n",
		who(tx), escape(tx.Counterparty), tx.Network, usdt(tx.Amount))
	if addrErr != nil {
		fmt.Fprintf(&b, "⚠️ The address does not look like a valid %s address (%s). Check with the user before sending.\n", tx.Network, addrErr)
	}
	b.WriteString("📌 Proceed with USDT transfer and click below when done.")
	return b.String()
}

func (t templates) adminPayoutRequest(tx models.Transaction) string {
	return fmt.Sprintf("🔹 User %s provided bank details:\n%s\n\n💲 USDT Amount: %s\n💵 Naira Amount: %s\n\n✅ Click 'Transfer Done' after transferring the Naira equivalent.",
		who(tx), escape(tx.Counterparty), tx.Amount, naira(tx.FiatAmount))
}

func (t templates) adminCompleted(tx models.Transaction) string {
	if tx.IsSell() {
		return fmt.Sprintf("✅ User %s has confirmed receipt of %s.", who(tx), naira(tx.FiatAmount))
	}
	return fmt.Sprintf("✅ User %s has confirmed receipt of %s.", who(tx), usdt(tx.Amount))
}

func (t templates) adminNotReceived(tx models.Transaction) string {
	if tx.IsSell() {
		return fmt.Sprintf("⚠️ User %s reported NOT receiving their Naira payment of %s.\nPlease investigate and resolve this issue.",
			who(tx), naira(tx.FiatAmount))
	}
	return fmt.Sprintf("⚠️ User %s reported NOT receiving the USDT transfer of %s.\nPlease verify and resolve the issue.",
		who(tx), usdt(tx.Amount))
}

func (t templates) adminCancelled(tx models.Transaction) string {
	return fmt.Sprintf("ℹ️ User %s cancelled their %s transaction of %s.", who(tx), tx.Direction, usdt(tx.Amount))
}

func (t templates) adminExpired(tx models.Transaction) string {
	return fmt.Sprintf("⏱️ The %s transaction of user %s timed out.", tx.Direction, who(tx))
}

// Keyboards.

// MenuKeyboard offers Buy and Sell.
func MenuKeyboard() net.Keyboard {
	return net.NewKeyboard(net.Row(
		net.Button{Text: "💰 Buy USDT", Data: ActionBuy},
		net.Button{Text: "💵 Sell USDT", Data: ActionSell},
	))
}

func menuWithExit() net.Keyboard {
	kb := MenuKeyboard()
	return append(kb, net.Row(net.Button{Text: "🚪 Exit", Data: ActionExit}))
}

func declineKeyboard() net.Keyboard {
	return net.NewKeyboard(net.Row(net.Button{Text: "❌ Decline / Go to Sell USDT", Data: ActionSell}))
}

func sellConfirmKeyboard() net.Keyboard {
	return net.NewKeyboard(net.Row(
		net.Button{Text: "✅ Confirm", Data: ActionConfirmSell},
		net.Button{Text: "❌ Cancel", Data: ActionCancel},
	))
}

func networkKeyboard(networks []models.Network) net.Keyboard {
	row := make([]net.Button, 0, len(networks))
	for _, n := range networks {
		row = append(row, net.Button{Text: "🔹 " + n.String(), Data: NetworkAction(n)})
	}
	return net.NewKeyboard(row)
}

func receiptKeyboard() net.Keyboard {
	return net.NewKeyboard(net.Row(
		net.Button{Text: "✅ Confirm Received", Data: ActionReceived},
		net.Button{Text: "❌ Not Received", Data: ActionNotReceived},
	))
}

func adminReviewKeyboard(owner models.Owner, accept string) net.Keyboard {
	label := "✅ Approve"
	if accept == AdminConfirm {
		label = "✅ Confirm"
	}
	return net.NewKeyboard(net.Row(
		net.Button{Text: label, Data: AdminAction(accept, owner)},
		net.Button{Text: "❌ Reject", Data: AdminAction(AdminReject, owner)},
		net.Button{Text: "⏳ Pending", Data: AdminAction(AdminPending, owner)},
	))
}

func adminSingleKeyboard(text, action string, owner models.Owner) net.Keyboard {
	return net.NewKeyboard(net.Row(net.Button{Text: text, Data: AdminAction(action, owner)}))
}
