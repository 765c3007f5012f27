// Package warmer keeps gift images resolved ahead of renders.
//
// The Warmer:
//   - Preloads the image of every record in the current market batch
//   - Runs on start, on a fixed interval, and after each market reload
//   - Purges expired rows from the persistent image cache each cycle
package warmer
