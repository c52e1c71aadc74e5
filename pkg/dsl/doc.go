/*
Package dsl provides a fluent Go builder for constructing Spindle dialogs without script source.

It is useful for generated content, unit tests, and hosts that assemble
conversations at runtime. Nodes keep the order in which they were added.

Example usage:

	b := dsl.New()

	b.Add("Start").
		Set("met", true).
		Say("Guard", "Halt! Who goes there?").
		Option("A friend", "Gate").
		Option("Nobody", "Start").When("met", domain.Equal, false).
		Option("Run", "Away")

	b.Add("Gate").Run("open_gate").Say("Guard", "Pass.")
	b.Add("Away").Say("", "You flee.")

	dialog, err := b.Build()
	// ... pass dialog to spindle.NewRunner(dialog, "Start")
*/
package dsl
