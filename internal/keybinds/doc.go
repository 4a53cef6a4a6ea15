/*
Package keybinds maps key presses to viewer actions.

Bindings live in contexts. The panel with focus selects the context; a key not
bound there falls back to the global context. Multi-key sequences such as "gg"
are matched with MatchMultiKey, which holds the first key until the next press.

Users override defaults through the keybinds section of config.yaml:

	keybinds:
	  viewer:
	    x: next_instance
	    n: ""            # unbind
	  tags:
	    c: copy_value

ctrl+c is reserved for quit_force.
*/
package keybinds
