// Package notify delivers rendered reports to a list of recipients.
//
// A Notifier turns a rendered document and its "main/sub" media type into a
// Message and hands it to a Transport. Delivery is best effort: Send never
// returns an error value of its own. It reports a Result holding the number
// of recipients the message was handed over for, or zero plus the transport
// error, and logs failures through the injected logger.
//
// Two transports are provided:
//   - SMTPTransport: plain SMTP session, optionally through a SOCKS5 proxy,
//     with STARTTLS and PLAIN authentication
//   - PostmarkTransport: Postmark's transactional email API
package notify
