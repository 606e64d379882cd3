// Copyright 2026 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

/*
Package kafkametrics watches a metrics registry for the metrics of Kafka
clients and tells subscribers about them.

Kafka clients create metrics at any time: a producer that starts writing to a
new topic grows a set of per-topic metrics, a consumer that loses a broker
drops the per-broker ones. A Watcher listens to a Registry, keeps track of
the metrics that belong to Kafka (by default, those whose group starts with
"kafka") and calls its Subscribers whenever one appears or disappears:

	w := kafkametrics.NewWatcher(ctx, reg,
		kafkametrics.WithSubscriber(&kafkametrics.SubscriberFuncs{
			Added: func(e *subset.Entry) {
				fmt.Println("+", e.Name(), e.TagsString())
			},
			Removed: func(e *subset.Entry) {
				fmt.Println("-", e.Name(), e.TagsString())
			},
		}))
	defer w.Close()

Every tracked metric is described by a subset.Entry, which carries the
normalized time-series name and tags derived from the registry identifier
(see package metricname).

Metrics that are already registered when the watcher is created are
announced to the subscribers passed to NewWatcher before NewWatcher returns.
Subscribers added later with AddSubscriber only hear about metrics added
after they subscribed.

Delivery

Subscribers are called synchronously, in the order they subscribed, on the
goroutine that changed the registry. Notifications are serialized: a
subscriber never runs concurrently with another notification of the same
Watcher, and sees the addition of a metric before its removal. A slow
subscriber therefore delays every other notification. Subscribers must not
register or unregister metrics or close the Watcher from within a callback;
they may add and remove subscribers.

A metric registered or unregistered while NewWatcher scans the registry is
applied after the scan, so the tracked set ends up matching the registry.
*/
package kafkametrics
