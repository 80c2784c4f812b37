// Package events defines the closed set of inputs the session orchestrator
// reacts to.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - transcript.*
//   - session.*
//   - conversation.*
//
// transcript events
//
//   - FragmentReceived (transcript.fragment_received): a recognition update
//     arrived from the transcript stream.
//
// session events
//
//   - ConnectRequested (session.connect_requested): a wake command or a
//     manual request asks to join the conversation.
//   - DisconnectRequested (session.disconnect_requested): a mute command or
//     a manual request asks to leave the conversation.
//   - SessionFailed (session.failed): the remote session reported an error.
//   - SessionDisconnected (session.disconnected): the remote session closed
//     without being asked to.
//
// conversation events
//
//   - ConversationUpdated (conversation.updated): a conversation item
//     changed, optionally with the delta that changed it.
//   - ConversationInterrupted (conversation.interrupted): the remote side
//     detected the user talking over the agent.
package events
