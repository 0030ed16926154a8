// Package rpimdp is the mission controller for the MDP robot. It bridges
// four independently-failing actors: the operator tablet (websocket line
// protocol), the motor controller (newline ASCII with a strict ACK/FIN
// handshake), the on-robot camera, and the remote path-planning and
// recognition service.
//
// # Architecture
//
// The controller is a set of concurrent workers sharing one mission state:
//
//   - Operator receiver: parses inbound lines into obstacle reports,
//     commands and control events.
//   - Operator sender: drains the outbound status-message queue.
//   - Command router: the dispatch state machine. Movements go to the
//     motor link under the movement lock; snapshots and the finalize
//     sentinel are handled locally.
//   - Motor handshake handler: advances ACK/FIN state and releases the
//     movement lock.
//   - Action processor: plan requests, image captures and stitching, kept
//     off the dispatch path.
//   - Reconnect supervisor: on an operator-link drop it bounces exactly
//     the two operator workers; queued motor commands keep executing.
//
// The shared primitives live in the mission package: a binary movement
// lock with idempotent release, the Unpause and FinishAll gates, the
// pending-acknowledgement flag, and the FIFO queues connecting the
// workers.
//
// # Packages
//
//   - protocol: wire formats, the operator-line parser, tagged commands
//   - operator, motor: links and their workers
//   - router, action: dispatch and slow-path workers
//   - planner, capture: remote service clients
//   - engine: assembly, lifecycle and supervision
//   - config, errors, metric, health, telemetry: ambient infrastructure
package rpimdp
