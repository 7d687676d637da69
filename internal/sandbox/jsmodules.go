package sandbox

import "github.com/dop251/goja"

var eventsProgram = goja.MustCompile("events", `(function (module) {
	'use strict';
	class EventEmitter {
		constructor() {
			Object.defineProperty(this, '_events', { value: new Map(), writable: true });
		}
		_add(name, fn, once, prepend) {
			if (typeof fn !== 'function') {
				throw new TypeError('The "listener" argument must be of type function');
			}
			const list = this._events.get(name) || [];
			if (prepend) list.unshift({ fn, once }); else list.push({ fn, once });
			this._events.set(name, list);
			return this;
		}
		on(name, fn) { return this._add(name, fn, false, false); }
		addListener(name, fn) { return this._add(name, fn, false, false); }
		prependListener(name, fn) { return this._add(name, fn, false, true); }
		once(name, fn) { return this._add(name, fn, true, false); }
		prependOnceListener(name, fn) { return this._add(name, fn, true, true); }
		off(name, fn) {
			const list = this._events.get(name);
			if (!list) return this;
			const i = list.findIndex((l) => l.fn === fn);
			if (i >= 0) list.splice(i, 1);
			if (list.length === 0) this._events.delete(name);
			return this;
		}
		removeListener(name, fn) { return this.off(name, fn); }
		removeAllListeners(name) {
			if (name === undefined) this._events.clear(); else this._events.delete(name);
			return this;
		}
		emit(name, ...args) {
			const list = this._events.get(name);
			if (!list || list.length === 0) {
				if (name === 'error') {
					throw args[0] instanceof Error ? args[0] : new Error('Unhandled error. (' + String(args[0]) + ')');
				}
				return false;
			}
			for (const l of list.slice()) {
				if (l.once) this.off(name, l.fn);
				l.fn.apply(this, args);
			}
			return true;
		}
		listenerCount(name) {
			const list = this._events.get(name);
			return list ? list.length : 0;
		}
		listeners(name) { return (this._events.get(name) || []).map((l) => l.fn); }
		eventNames() { return Array.from(this._events.keys()); }
		setMaxListeners() { return this; }
		getMaxListeners() { return EventEmitter.defaultMaxListeners; }
	}
	EventEmitter.EventEmitter = EventEmitter;
	EventEmitter.defaultMaxListeners = 10;
	EventEmitter.once = (emitter, name) => new Promise((resolve) => emitter.once(name, (...args) => resolve(args)));
	module.exports = EventEmitter;
})`, true)

var assertProgram = goja.MustCompile("assert", `(function (module, inspect) {
	'use strict';
	class AssertionError extends Error {
		constructor(options) {
			super(options.message);
			this.name = 'AssertionError';
			this.code = 'ERR_ASSERTION';
			this.actual = options.actual;
			this.expected = options.expected;
			this.operator = options.operator;
		}
	}
	function fail(message, fallback, actual, expected, operator) {
		if (message instanceof Error) throw message;
		throw new AssertionError({
			message: message === undefined ? fallback : String(message),
			actual, expected, operator,
		});
	}
	const deepSame = (a, b) => Object.is(a, b) || inspect(a) === inspect(b);

	function assert(value, message) {
		if (!value) fail(message, 'The expression evaluated to a falsy value:\n\n  assert(' + inspect(value) + ')\n', value, true, '==');
	}
	assert.ok = assert;
	assert.equal = (a, b, m) => { if (a != b) fail(m, inspect(a) + ' == ' + inspect(b), a, b, '=='); };
	assert.notEqual = (a, b, m) => { if (a == b) fail(m, inspect(a) + ' != ' + inspect(b), a, b, '!='); };
	assert.strictEqual = (a, b, m) => {
		if (!Object.is(a, b)) fail(m, 'Expected values to be strictly equal:\n\n' + inspect(a) + ' !== ' + inspect(b) + '\n', a, b, 'strictEqual');
	};
	assert.notStrictEqual = (a, b, m) => {
		if (Object.is(a, b)) fail(m, 'Expected "actual" to be strictly unequal to: ' + inspect(b), a, b, 'notStrictEqual');
	};
	assert.deepStrictEqual = (a, b, m) => {
		if (!deepSame(a, b)) fail(m, 'Expected values to be strictly deep-equal:\n' + inspect(a) + '\n\nshould equal\n\n' + inspect(b), a, b, 'deepStrictEqual');
	};
	assert.deepEqual = assert.deepStrictEqual;
	assert.notDeepStrictEqual = (a, b, m) => {
		if (deepSame(a, b)) fail(m, 'Expected "actual" not to be strictly deep-equal to: ' + inspect(b), a, b, 'notDeepStrictEqual');
	};
	assert.notDeepEqual = assert.notDeepStrictEqual;
	assert.throws = (fn, expected, m) => {
		try {
			fn();
		} catch (e) {
			if (typeof expected === 'function' && expected.prototype !== undefined && !(e instanceof expected)) throw e;
			if (expected instanceof RegExp && !expected.test(String(e))) {
				fail(m, 'The error message does not match ' + String(expected), e, expected, 'throws');
			}
			return;
		}
		fail(typeof expected === 'string' ? expected : m, 'Missing expected exception.', undefined, expected, 'throws');
	};
	assert.doesNotThrow = (fn, m) => {
		try {
			fn();
		} catch (e) {
			fail(m, 'Got unwanted exception.\nActual message: "' + (e && e.message) + '"', e, undefined, 'doesNotThrow');
		}
	};
	assert.match = (s, re, m) => {
		if (!re.test(s)) fail(m, 'The input did not match the regular expression ' + String(re) + '. Input:\n\n' + inspect(s) + '\n', s, re, 'match');
	};
	assert.fail = (m) => fail(m, 'Failed', undefined, undefined, 'fail');
	assert.AssertionError = AssertionError;
	assert.strict = assert;
	module.exports = assert;
})`, true)
