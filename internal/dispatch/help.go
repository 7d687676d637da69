package dispatch

// Help describes the command to operators.
const Help = "Run JavaScript in a restricted sandbox and get its output back.\n" +
	"\n" +
	"Features\n" +
	"1. require() with a limited surface:\n" +
	"   1.1. standard modules listed in DEBUG.AVAILABLE_MODULES.\n" +
	"   1.2. host capabilities under debug:<name>, listed in DEBUG.CUSTOM_MODULES.\n" +
	"2. the message object, including message.channel.send(text).\n" +
	"3. the DEBUG object: AVAILABLE_MODULES, OPTIONAL_FEATURES, VM_CONFIG, CUSTOM_MODULES.\n" +
	"4. directives, written as \"// #name args\" lines:\n" +
	"   4.1. #enable <feature>: turn on a feature. async wraps the script in an\n" +
	"        async function so top-level await works; return the result.\n" +
	"   4.2. #vmconf <key> <args>: configure the sandbox. timeout <ms> sets the\n" +
	"        execution budget, 1000 by default.\n" +
	"\n" +
	"Notes\n" +
	"- The script MUST be in a code block tagged js or javascript.\n" +
	"- Host globals such as setTimeout are absent; require('timers') instead.\n" +
	"- A promise result is awaited before it is shown.\n" +
	"\n" +
	"Example\n" +
	"/debug ```js\n" +
	"const { setTimeout } = require('timers');\n" +
	"\n" +
	"// #vmconf timeout 2000\n" +
	"\n" +
	"new Promise((resolve) => {\n" +
	"  setTimeout(() => {\n" +
	"    message.channel.send('Hello, World!');\n" +
	"    resolve('done');\n" +
	"  }, 100);\n" +
	"})\n" +
	"```"
