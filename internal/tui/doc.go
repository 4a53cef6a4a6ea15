// Package tui is the terminal view over the application state.
//
// The Model subscribes to every container. Subscribers only signal a channel;
// the Bubble Tea loop turns each signal into a stateChangedMsg and re-reads all
// containers, so rendering never races with collaborators. User input goes back
// through the containers' mutation methods.
package tui
