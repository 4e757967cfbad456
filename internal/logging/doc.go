// Package logger provides leveled logging for Quill services and commands.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags. Output is formatted with colored prefixes.
//
// # Verbosity Levels
//
//   - --verbose: Shows info and warning messages
//   - --debug: Shows all messages including debug and error details
//
// Without flags, only WarnfAlways output is shown.
//
// # Log Methods
//
//	Logger.Infof()          // Shown with --verbose or --debug
//	Logger.Debugf()         // Shown only with --debug
//	Logger.Warnf()          // Shown with --verbose or --debug
//	Logger.WarnfAlways()    // Always shown
//	Logger.Errorf()         // Shown with --debug
//	Logger.ErrorfAndReturn() // Errorf, then returns the message as an error
//
// # Secrets
//
// Never pass passwords, secret keys or entry keys to a log method. User ids
// and Base64 public keys are safe to log.
//
// # Usage
//
//	log := logger.Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Unlocked session for %s", userID)
//
// Library code and tests that want silence use logger.Discard().
package logger
