// Package log builds the slog loggers used by vvreport.
//
// Loggers created here wrap their handler in a SecureHandler, which masks
// delivery credentials before they reach the output:
//   - attributes whose key names a secret (password, token, authorization,
//     Postmark server/account tokens, ...)
//   - values that look like credentials regardless of key (bearer and basic
//     authorization values, JWTs, PEM private keys)
//
// The logger is passed explicitly to the components that log, such as
// notify.Notifier; nothing in vvreport logs through a package global.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	n := notify.New(cfg, transport, logger)
package log
